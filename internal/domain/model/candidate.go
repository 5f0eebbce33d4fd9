package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field pairs an extracted value with the confidence of the match.
type Field[T any] struct {
	Value      T       `json:"value"`
	Confidence float64 `json:"confidence"`
	Present    bool    `json:"present"`
}

// Found builds a present field.
func Found[T any](value T, confidence float64) Field[T] {
	return Field[T]{Value: value, Confidence: confidence, Present: true}
}

// EmailKind is the detected purpose of a receipt message.
type EmailKind string

const (
	EmailKindConfirmation EmailKind = "confirmation"
	EmailKindShipping     EmailKind = "shipping"
	EmailKindDelivery     EmailKind = "delivery"
	EmailKindUnknown      EmailKind = "unknown"
)

// Candidate is the confidence-annotated result of extracting a RawText.
type Candidate struct {
	SourceID         string                 `json:"source_id,omitempty"`
	MerchantName     Field[string]          `json:"merchant_name"`
	OrderID          Field[string]          `json:"order_id"`
	OrderDate        Field[time.Time]       `json:"order_date"`
	DeliveryDate     Field[time.Time]       `json:"delivery_date"`
	Amount           Field[decimal.Decimal] `json:"amount"`
	Currency         Field[string]          `json:"currency"`
	ReturnWindowDays Field[int]             `json:"return_window_days"`
	WarrantyMonths   Field[int]             `json:"warranty_months"`
	TrackingNumber   Field[string]          `json:"tracking_number"`
	Kind             EmailKind              `json:"kind"`
	Evidence         map[string]string      `json:"evidence,omitempty"`
}

// Empty reports whether no field could be extracted at all.
func (c Candidate) Empty() bool {
	return !c.MerchantName.Present && !c.OrderID.Present && !c.OrderDate.Present &&
		!c.DeliveryDate.Present && !c.Amount.Present && !c.ReturnWindowDays.Present &&
		!c.WarrantyMonths.Present
}
