package model

// MerchantRule is reference policy for a merchant's default return window.
type MerchantRule struct {
	MerchantName      string `yaml:"merchant" json:"merchant_name" validate:"required,max=100"`
	DefaultReturnDays int    `yaml:"return_days" json:"default_return_days" validate:"min=0,max=3650"`
	Notes             string `yaml:"notes" json:"notes,omitempty" validate:"max=500"`
}
