// Package extraction turns unstructured receipt text into confidence-scored order candidates.
package extraction

import (
	"strings"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// KnownMerchant is a merchant recognised with full confidence, either by one
// of its sender domains or by its name appearing in the text.
type KnownMerchant struct {
	Name    string
	Domains []string
}

// DefaultMerchants is the built-in merchant table.
var DefaultMerchants = []KnownMerchant{
	{Name: "Amazon", Domains: []string{"amazon.in", "amazon.com"}},
	{Name: "Flipkart", Domains: []string{"flipkart.com"}},
	{Name: "Myntra", Domains: []string{"myntra.com"}},
	{Name: "Nykaa", Domains: []string{"nykaa.com"}},
	{Name: "Zomato", Domains: []string{"zomato.com"}},
	{Name: "H&M", Domains: []string{"hm.com"}},
}

// Options configures an Engine.
type Options struct {
	// DefaultCurrency is inferred for bare amounts without a symbol or code.
	DefaultCurrency string
	// DayFirst reads 01/02/2025 as 1 February. When false it reads as January 2.
	DayFirst bool
	// Merchants extends DefaultMerchants.
	Merchants []KnownMerchant
}

// Engine extracts Candidates. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	opts      Options
	merchants []merchantMatcher
}

// New builds an Engine.
func New(opts Options) *Engine {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "INR"
	}
	opts.DefaultCurrency = strings.ToUpper(opts.DefaultCurrency)

	merchants := make([]merchantMatcher, 0, len(DefaultMerchants)+len(opts.Merchants))
	seen := make(map[string]struct{})
	for _, m := range append(append([]KnownMerchant(nil), DefaultMerchants...), opts.Merchants...) {
		key := strings.ToLower(strings.TrimSpace(m.Name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merchants = append(merchants, newMerchantMatcher(m))
	}
	return &Engine{opts: opts, merchants: merchants}
}

// Extract runs every field extractor over text. It never fails: unmatched
// fields are left absent with zero confidence. The result depends only on text
// and the engine options.
func (e *Engine) Extract(text model.RawText) model.Candidate {
	body := normalize(text.Body)
	subject := strings.Join(strings.Fields(text.Subject), " ")
	full := body
	if subject != "" {
		full = subject + "\n" + body
	}

	c := model.Candidate{SourceID: text.SourceID}
	ev := make(map[string]string)

	e.extractMerchant(text.Sender, full, &c, ev)
	tracking := extractTracking(full, &c, ev)
	extractOrderID(full, tracking, &c, ev)
	e.extractDates(full, &c, ev)
	e.extractAmount(full, &c, ev)
	extractReturnWindow(full, &c, ev)
	extractWarranty(full, &c, ev)
	c.Kind = detectKind(subject, body)

	if len(ev) > 0 {
		c.Evidence = ev
	}
	return c
}
