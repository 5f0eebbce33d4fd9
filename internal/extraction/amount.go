package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

const (
	symbolAmountConfidence    = 0.9
	bareAmountConfidence      = 0.5
	defaultCurrencyConfidence = 0.3
)

// number accepts space grouped ("1 299"), comma grouped ("1,299" or "1,29,999") and plain amounts.
const number = `([0-9]{1,3}(?: [0-9]{3})+\b(?:\.[0-9]{1,2})?|[0-9]{1,3}(?:,[0-9]{2,3})+(?:\.[0-9]{1,2})?|[0-9]+(?:\.[0-9]{1,2})?)`

var (
	prefixAmountRe = regexp.MustCompile(`(?i)(₹|\$|€|£|\brs\.?|\binr|\busd|\beur|\bgbp)\s*` + number)
	suffixAmountRe = regexp.MustCompile(`(?i)` + number + `\s*(inr|usd|eur|gbp|rupees)\b`)
	bareAmountRe   = regexp.MustCompile(`(?i)\b(?:grand\s+total|total(?:\s+amount)?|amount(?:\s+paid|\s+payable)?)\s*[:\-]?\s*` + number)

	currencyCodes = map[string]string{
		"₹": "INR", "rs": "INR", "rs.": "INR", "inr": "INR", "rupees": "INR",
		"$": "USD", "usd": "USD",
		"€": "EUR", "eur": "EUR",
		"£": "GBP", "gbp": "GBP",
	}
	groupSeparators   = strings.NewReplacer(",", "", " ", "")
	strongTotalLabels = []string{"grand total", "amount paid", "order total", "total amount", "amount payable", "total paid"}
)

type amountMatch struct {
	value    decimal.Decimal
	currency string
	snippet  string
	score    int
}

// extractAmount picks the most total-like amount carrying a currency marker,
// falling back to a bare number after a Total or Amount label.
func (e *Engine) extractAmount(text string, c *model.Candidate, ev map[string]string) {
	var best *amountMatch
	consider := func(m amountMatch) {
		if best == nil || m.score > best.score || (m.score == best.score && m.value.GreaterThan(best.value)) {
			best = &m
		}
	}

	for _, loc := range prefixAmountRe.FindAllStringSubmatchIndex(text, -1) {
		if m, ok := newAmountMatch(text, loc, text[loc[2]:loc[3]], text[loc[4]:loc[5]]); ok {
			consider(m)
		}
	}
	for _, loc := range suffixAmountRe.FindAllStringSubmatchIndex(text, -1) {
		if m, ok := newAmountMatch(text, loc, text[loc[4]:loc[5]], text[loc[2]:loc[3]]); ok {
			consider(m)
		}
	}
	if best != nil {
		c.Amount = model.Found(best.value, symbolAmountConfidence)
		c.Currency = model.Found(best.currency, symbolAmountConfidence)
		ev["amount"] = best.snippet
		return
	}

	for _, loc := range bareAmountRe.FindAllStringSubmatchIndex(text, -1) {
		value, ok := parseAmount(text[loc[2]:loc[3]])
		if !ok {
			continue
		}
		consider(amountMatch{value: value, snippet: text[loc[0]:loc[1]], score: totalScore(lineOf(text, loc[0]))})
	}
	if best != nil {
		c.Amount = model.Found(best.value, bareAmountConfidence)
		c.Currency = model.Found(e.opts.DefaultCurrency, defaultCurrencyConfidence)
		ev["amount"] = best.snippet
	}
}

func newAmountMatch(text string, loc []int, marker, digits string) (amountMatch, bool) {
	value, ok := parseAmount(digits)
	if !ok {
		return amountMatch{}, false
	}
	currency, ok := currencyCodes[strings.ToLower(strings.TrimSpace(marker))]
	if !ok {
		return amountMatch{}, false
	}
	return amountMatch{
		value:    value,
		currency: currency,
		snippet:  text[loc[0]:loc[1]],
		score:    totalScore(lineOf(text, loc[0])),
	}, true
}

func parseAmount(digits string) (decimal.Decimal, bool) {
	value, err := decimal.NewFromString(groupSeparators.Replace(digits))
	if err != nil || !value.IsPositive() {
		return decimal.Decimal{}, false
	}
	return value, true
}

// totalScore ranks how strongly a line reads as the order total.
func totalScore(line string) int {
	lower := strings.ToLower(line)
	for _, label := range strongTotalLabels {
		if strings.Contains(lower, label) {
			return 3
		}
	}
	if strings.Contains(lower, "total") && !strings.Contains(lower, "subtotal") && !strings.Contains(lower, "sub total") {
		return 2
	}
	if strings.Contains(lower, "amount") || strings.Contains(lower, "paid") {
		return 1
	}
	return 0
}

func lineOf(text string, at int) string {
	start := strings.LastIndexByte(text[:at], '\n') + 1
	end := strings.IndexByte(text[at:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : at+end]
}
