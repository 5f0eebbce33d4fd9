// Package policy turns extraction candidates into orders with computed return
// and warranty deadlines. Every function here is pure.
package policy

import (
	"fmt"
	"math"
	"time"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

const (
	// DefaultReturnWindowDays applies when neither the text nor a merchant rule gives one.
	DefaultReturnWindowDays = 30
	// MissingDeliveryGraceDays is added to the order date when the delivery date is unknown.
	MissingDeliveryGraceDays = 3
	// ReviewThreshold is the overall confidence below which an order needs review.
	ReviewThreshold = 0.6
	// ExtractedWindowThreshold is the minimum confidence for trusting an extracted window.
	ExtractedWindowThreshold = 0.5

	merchantRuleConfidence  = 0.7
	globalDefaultConfidence = 0.3
	userConfidence          = 1.0
)

// RawData keys.
const (
	KeyWindowSource     = "window_source"
	KeyFieldConfidences = "field_confidences"
	KeyCandidate        = "candidate"
	KeyCorrected        = "corrected"
	KeyManual           = "manual"
)

// MerchantPolicyStore resolves a merchant's default return window.
type MerchantPolicyStore interface {
	Lookup(name string) (model.MerchantRule, bool)
}

// inputs is the common shape Finalize, FinalizeManual and ApplyCorrection derive from.
type inputs struct {
	merchant     model.Field[string]
	orderDate    model.Field[time.Time]
	delivery     model.Field[time.Time]
	amount       bool
	window       int
	windowSource model.WindowSource
	windowConf   float64
	warranty     int
}

type derived struct {
	deadline       time.Time
	warrantyExpiry *time.Time
	overall        float64
	needsReview    bool
}

// Finalize computes the persisted order fields of a candidate. It fails with
// ErrExtractionFailed when no order date was extracted.
func Finalize(c model.Candidate, store MerchantPolicyStore) (model.Order, error) {
	if !c.OrderDate.Present {
		return model.Order{}, domainErrors.ErrExtractionFailed
	}

	in := inputs{
		merchant:  c.MerchantName,
		orderDate: c.OrderDate,
		delivery:  c.DeliveryDate,
		amount:    c.Amount.Present,
	}
	in.window, in.windowSource, in.windowConf = resolveWindow(c, store)
	if c.WarrantyMonths.Present {
		in.warranty = c.WarrantyMonths.Value
	}

	d := derive(in)
	order := model.Order{
		SourceID:          c.SourceID,
		MerchantName:      c.MerchantName.Value,
		OrderID:           c.OrderID.Value,
		OrderDate:         model.DateOf(c.OrderDate.Value),
		DeliveryDate:      datePtr(c.DeliveryDate),
		Amount:            c.Amount.Value,
		Currency:          c.Currency.Value,
		ReturnWindowDays:  in.window,
		ReturnDeadline:    d.deadline,
		WarrantyMonths:    in.warranty,
		WarrantyExpiry:    d.warrantyExpiry,
		OverallConfidence: d.overall,
		NeedsReview:       d.needsReview,
		RawData: map[string]any{
			KeyWindowSource:     string(in.windowSource),
			KeyFieldConfidences: fieldConfidences(c),
			KeyCandidate:        c,
		},
	}
	return order, nil
}

// resolveWindow picks the return window: extracted, merchant rule, global default.
func resolveWindow(c model.Candidate, store MerchantPolicyStore) (int, model.WindowSource, float64) {
	if c.ReturnWindowDays.Present && c.ReturnWindowDays.Confidence >= ExtractedWindowThreshold && c.ReturnWindowDays.Value >= 0 {
		return c.ReturnWindowDays.Value, model.WindowSourceExtracted, c.ReturnWindowDays.Confidence
	}
	if store != nil && c.MerchantName.Present {
		if rule, ok := store.Lookup(c.MerchantName.Value); ok && rule.DefaultReturnDays >= 0 {
			return rule.DefaultReturnDays, model.WindowSourceMerchantRule, merchantRuleConfidence
		}
	}
	return DefaultReturnWindowDays, model.WindowSourceGlobalDefault, globalDefaultConfidence
}

func derive(in inputs) derived {
	orderDate := model.DateOf(in.orderDate.Value)

	var d derived
	overall := math.Min(in.orderDate.Confidence, in.windowConf)
	base := orderDate
	if in.delivery.Present {
		base = model.DateOf(in.delivery.Value)
		d.deadline = model.AddDays(base, in.window)
		overall = math.Min(overall, in.delivery.Confidence)
	} else {
		d.deadline = model.AddDays(orderDate, in.window+MissingDeliveryGraceDays)
	}
	if d.deadline.Before(orderDate) {
		d.deadline = orderDate
	}

	if in.warranty > 0 {
		expiry := base.AddDate(0, in.warranty, 0)
		d.warrantyExpiry = &expiry
	}

	d.overall = roundConfidence(overall)
	d.needsReview = d.overall < ReviewThreshold ||
		!in.delivery.Present ||
		!in.merchant.Present || in.merchant.Value == "" ||
		!in.amount
	return d
}

func fieldConfidences(c model.Candidate) map[string]float64 {
	return map[string]float64{
		"merchant_name":      c.MerchantName.Confidence,
		"order_id":           c.OrderID.Confidence,
		"order_date":         c.OrderDate.Confidence,
		"delivery_date":      c.DeliveryDate.Confidence,
		"amount":             c.Amount.Confidence,
		"currency":           c.Currency.Confidence,
		"return_window_days": c.ReturnWindowDays.Confidence,
		"warranty_months":    c.WarrantyMonths.Confidence,
	}
}

func datePtr(f model.Field[time.Time]) *time.Time {
	if !f.Present {
		return nil
	}
	d := model.DateOf(f.Value)
	return &d
}

func roundConfidence(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func validateWindow(days int) error {
	if days < 0 {
		return fmt.Errorf("return window %d days: %w", days, domainErrors.ErrInvalidCorrection)
	}
	return nil
}
