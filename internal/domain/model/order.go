package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WindowSource records where an order's return window came from.
type WindowSource string

const (
	WindowSourceExtracted     WindowSource = "extracted"
	WindowSourceMerchantRule  WindowSource = "merchant_rule"
	WindowSourceGlobalDefault WindowSource = "global_default"
	WindowSourceUser          WindowSource = "user"
)

// Order is a purchase whose return and warranty deadlines are tracked for a user.
type Order struct {
	ID                int64
	UserID            int64
	ContactEmail      string
	SourceID          string
	MerchantName      string
	OrderID           string
	OrderDate         time.Time
	DeliveryDate      *time.Time
	Amount            decimal.Decimal
	Currency          string
	ReturnWindowDays  int
	ReturnDeadline    time.Time
	WarrantyMonths    int
	WarrantyExpiry    *time.Time
	OverallConfidence float64
	NeedsReview       bool
	RawData           map[string]any
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Correction carries user supplied replacements for order fields. Nil fields are left as is.
type Correction struct {
	MerchantName     *string          `validate:"omitempty,min=1,max=100"`
	OrderID          *string          `validate:"omitempty,max=100"`
	OrderDate        *time.Time       `validate:"omitempty"`
	DeliveryDate     *time.Time       `validate:"omitempty"`
	ClearDelivery    bool             `validate:"-"`
	Amount           *decimal.Decimal `validate:"omitempty"`
	Currency         *string          `validate:"omitempty,len=3"`
	ReturnWindowDays *int             `validate:"omitempty,min=0,max=3650"`
	WarrantyMonths   *int             `validate:"omitempty,min=0,max=600"`
	Confirm          bool             `validate:"-"`
}

// ManualEntry describes an order typed in by the user instead of extracted from a receipt.
type ManualEntry struct {
	MerchantName     string          `validate:"required,max=100"`
	OrderID          string          `validate:"max=100"`
	OrderDate        time.Time       `validate:"required"`
	DeliveryDate     *time.Time      `validate:"omitempty"`
	Amount           decimal.Decimal `validate:"-"`
	Currency         string          `validate:"omitempty,len=3"`
	ReturnWindowDays *int            `validate:"omitempty,min=0,max=3650"`
	WarrantyMonths   *int            `validate:"omitempty,min=0,max=600"`
}
