package policy

import (
	"fmt"
	"maps"
	"strings"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// ApplyCorrection replaces the corrected fields of order and recomputes its
// deadlines as Finalize would, treating every field as certain. Review is
// cleared only when the correction confirms the order.
func ApplyCorrection(order model.Order, c model.Correction) (model.Order, error) {
	out := order
	if c.MerchantName != nil {
		out.MerchantName = strings.TrimSpace(*c.MerchantName)
	}
	if c.OrderID != nil {
		out.OrderID = strings.TrimSpace(*c.OrderID)
	}
	if c.OrderDate != nil {
		out.OrderDate = model.DateOf(*c.OrderDate)
	}
	switch {
	case c.ClearDelivery:
		out.DeliveryDate = nil
	case c.DeliveryDate != nil:
		d := model.DateOf(*c.DeliveryDate)
		out.DeliveryDate = &d
	}
	if c.Amount != nil {
		if c.Amount.IsNegative() {
			return model.Order{}, fmt.Errorf("negative amount: %w", domainErrors.ErrInvalidCorrection)
		}
		out.Amount = *c.Amount
	}
	if c.Currency != nil {
		out.Currency = strings.ToUpper(strings.TrimSpace(*c.Currency))
	}
	if c.ReturnWindowDays != nil {
		if err := validateWindow(*c.ReturnWindowDays); err != nil {
			return model.Order{}, err
		}
		out.ReturnWindowDays = *c.ReturnWindowDays
	}
	if c.WarrantyMonths != nil {
		if *c.WarrantyMonths < 0 {
			return model.Order{}, fmt.Errorf("warranty %d months: %w", *c.WarrantyMonths, domainErrors.ErrInvalidCorrection)
		}
		out.WarrantyMonths = *c.WarrantyMonths
	}

	if err := validateWindow(out.ReturnWindowDays); err != nil {
		return model.Order{}, err
	}
	if out.OrderDate.IsZero() {
		return model.Order{}, fmt.Errorf("order date missing: %w", domainErrors.ErrInvalidCorrection)
	}
	if out.DeliveryDate != nil && out.DeliveryDate.Before(out.OrderDate) {
		return model.Order{}, fmt.Errorf("delivery before order date: %w", domainErrors.ErrInvalidCorrection)
	}

	in := inputs{
		orderDate:  model.Found(out.OrderDate, userConfidence),
		amount:     !out.Amount.IsZero(),
		window:     out.ReturnWindowDays,
		windowConf: userConfidence,
		warranty:   out.WarrantyMonths,
	}
	if out.MerchantName != "" {
		in.merchant = model.Found(out.MerchantName, userConfidence)
	}
	if out.DeliveryDate != nil {
		in.delivery = model.Found(*out.DeliveryDate, userConfidence)
	}

	d := derive(in)
	out.ReturnDeadline = d.deadline
	out.WarrantyExpiry = d.warrantyExpiry
	out.OverallConfidence = d.overall
	if c.Confirm {
		out.NeedsReview = false
	} else {
		out.NeedsReview = order.NeedsReview || d.needsReview
	}

	out.RawData = maps.Clone(order.RawData)
	if out.RawData == nil {
		out.RawData = make(map[string]any)
	}
	out.RawData[KeyCorrected] = true
	if c.ReturnWindowDays != nil {
		out.RawData[KeyWindowSource] = string(model.WindowSourceUser)
	}
	return out, nil
}

// FinalizeManual builds an order from user typed fields. Typed values carry
// full confidence; a missing window is resolved like an extracted order's.
func FinalizeManual(e model.ManualEntry, store MerchantPolicyStore) (model.Order, error) {
	if e.OrderDate.IsZero() {
		return model.Order{}, fmt.Errorf("order date missing: %w", domainErrors.ErrInvalidInput)
	}
	if e.DeliveryDate != nil && model.DateOf(*e.DeliveryDate).Before(model.DateOf(e.OrderDate)) {
		return model.Order{}, fmt.Errorf("delivery before order date: %w", domainErrors.ErrInvalidInput)
	}
	if e.ReturnWindowDays != nil && *e.ReturnWindowDays < 0 {
		return model.Order{}, fmt.Errorf("negative return window: %w", domainErrors.ErrInvalidInput)
	}
	if e.Amount.IsNegative() {
		return model.Order{}, fmt.Errorf("negative amount: %w", domainErrors.ErrInvalidInput)
	}

	c := model.Candidate{
		OrderDate: model.Found(e.OrderDate, userConfidence),
		Kind:      model.EmailKindUnknown,
	}
	if name := strings.TrimSpace(e.MerchantName); name != "" {
		c.MerchantName = model.Found(name, userConfidence)
	}
	if id := strings.TrimSpace(e.OrderID); id != "" {
		c.OrderID = model.Found(id, userConfidence)
	}
	if e.DeliveryDate != nil {
		c.DeliveryDate = model.Found(*e.DeliveryDate, userConfidence)
	}
	if !e.Amount.IsZero() {
		c.Amount = model.Found(e.Amount, userConfidence)
	}
	if cur := strings.ToUpper(strings.TrimSpace(e.Currency)); cur != "" {
		c.Currency = model.Found(cur, userConfidence)
	}
	if e.ReturnWindowDays != nil {
		c.ReturnWindowDays = model.Found(*e.ReturnWindowDays, userConfidence)
	}
	if e.WarrantyMonths != nil && *e.WarrantyMonths > 0 {
		c.WarrantyMonths = model.Found(*e.WarrantyMonths, userConfidence)
	}

	order, err := Finalize(c, store)
	if err != nil {
		return model.Order{}, err
	}
	if e.ReturnWindowDays != nil {
		order.RawData[KeyWindowSource] = string(model.WindowSourceUser)
	}
	delete(order.RawData, KeyCandidate)
	order.RawData[KeyManual] = true
	return order, nil
}

// WindowSourceOf reports the recorded window source of an order.
func WindowSourceOf(o model.Order) model.WindowSource {
	if s, ok := o.RawData[KeyWindowSource].(string); ok {
		return model.WindowSource(s)
	}
	return ""
}
