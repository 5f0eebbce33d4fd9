package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

const (
	returnWindowConfidence = 0.8
	warrantyConfidence     = 0.8
)

var (
	returnWindowRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d{1,3})[\s\-]*days?\s+(?:easy\s+|free\s+|hassle[\s\-]free\s+)?(?:returns?|replacements?|exchange)`),
		regexp.MustCompile(`(?i)\breturn(?:ed|able)?\s+(?:\w+\s+){0,3}?within\s+(\d{1,3})\s+days?`),
		regexp.MustCompile(`(?i)\breturn\s+(?:window|period|policy)\s*(?:is|of)?\s*[:\-]?\s*(\d{1,3})\s+days?`),
	}
	warrantyRe = regexp.MustCompile(`(?i)(?:\b(\d{1,2})[\s\-]*(years?|yrs?|months?)\s+(?:\w+\s+)?warranty|\bwarranty\s*(?:of|period|:|-)?\s*[:\-]?\s*(\d{1,2})\s*(years?|yrs?|months?))`)

	deliveryKindHints     = []string{"delivered", "has been delivered", "was delivered", "delivery complete"}
	shippingKindHints     = []string{"shipped", "dispatched", "out for delivery", "on its way", "in transit", "tracking"}
	confirmationKindHints = []string{"order confirmed", "order confirmation", "thank you for your order", "order placed", "order received", "thanks for shopping", "thank you for shopping", "invoice"}
)

func extractReturnWindow(text string, c *model.Candidate, ev map[string]string) {
	for _, re := range returnWindowRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		days, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		c.ReturnWindowDays = model.Found(days, returnWindowConfidence)
		ev["return_window_days"] = m[0]
		return
	}
}

func extractWarranty(text string, c *model.Candidate, ev map[string]string) {
	m := warrantyRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	amount, unit := m[1], m[2]
	if amount == "" {
		amount, unit = m[3], m[4]
	}
	n, err := strconv.Atoi(amount)
	if err != nil || n == 0 {
		return
	}
	if strings.HasPrefix(strings.ToLower(unit), "y") {
		n *= 12
	}
	c.WarrantyMonths = model.Found(n, warrantyConfidence)
	ev["warranty_months"] = m[0]
}

// detectKind classifies the message, checking the most advanced lifecycle stage first.
func detectKind(subject, body string) model.EmailKind {
	text := strings.ToLower(subject + "\n" + body)
	switch {
	case containsAny(text, deliveryKindHints) && !strings.Contains(text, "expected delivery"):
		return model.EmailKindDelivery
	case containsAny(text, shippingKindHints):
		return model.EmailKindShipping
	case containsAny(text, confirmationKindHints):
		return model.EmailKindConfirmation
	default:
		return model.EmailKindUnknown
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
