package extraction

import (
	"regexp"
	"strings"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

const (
	labeledOrderIDConfidence = 0.9
	bareOrderIDConfidence    = 0.5
	trackingConfidence       = 0.8
)

var (
	labeledOrderIDRe = regexp.MustCompile(`(?i)\border\s*(?:(?:#|number|no\b\.?|id\b)\s*[:#]?|[:#])\s*([a-z0-9][a-z0-9\-_/]{2,39})`)
	bareOrderIDRe    = regexp.MustCompile(`\b([A-Z]{2,6}-\d{3,}(?:-\d+)*|\d{3}-\d{7}-\d{7}|OD\d{10,})\b`)
	trackingRe       = regexp.MustCompile(`(?i)\b(?:tracking|awb|consignment)\s*(?:number|no\b\.?|id\b|#)?\s*[:#]?\s*([a-z0-9]{8,30})\b`)
)

func extractOrderID(text, tracking string, c *model.Candidate, ev map[string]string) {
	for _, m := range labeledOrderIDRe.FindAllStringSubmatch(text, -1) {
		id := strings.TrimRight(m[1], "-_/")
		if !hasDigit(id) || strings.EqualFold(id, tracking) {
			continue
		}
		c.OrderID = model.Found(id, labeledOrderIDConfidence)
		ev["order_id"] = m[0]
		return
	}
	for _, m := range bareOrderIDRe.FindAllStringSubmatch(text, -1) {
		if strings.EqualFold(m[1], tracking) {
			continue
		}
		c.OrderID = model.Found(m[1], bareOrderIDConfidence)
		ev["order_id"] = m[0]
		return
	}
}

// extractTracking returns the tracking number so the order id extractor can skip it.
func extractTracking(text string, c *model.Candidate, ev map[string]string) string {
	for _, m := range trackingRe.FindAllStringSubmatch(text, -1) {
		if !hasDigit(m[1]) {
			continue
		}
		c.TrackingNumber = model.Found(m[1], trackingConfidence)
		ev["tracking_number"] = m[0]
		return m[1]
	}
	return ""
}

func hasDigit(s string) bool {
	return strings.IndexAny(s, "0123456789") >= 0
}
