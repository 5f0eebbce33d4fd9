package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

const (
	knownMerchantConfidence     = 1.0
	heuristicMerchantConfidence = 0.6
)

var (
	senderDomainRe = regexp.MustCompile(`(?i)@([a-z0-9.\-]+\.[a-z]{2,})`)
	fromLineRe     = regexp.MustCompile(`(?im)^(?:from|sender)\s*:[^\n]*?@([a-z0-9.\-]+\.[a-z]{2,})`)
	shoppingWithRe = regexp.MustCompile(`\b(?i:shopping|ordering|purchase|order)\s+(?i:with|at|from)\s+([A-Z][A-Za-z0-9&'.\-]*(?:\s+[A-Z][A-Za-z0-9&'.\-]*){0,2})`)

	freeMailDomains = map[string]struct{}{
		"gmail": {}, "googlemail": {}, "yahoo": {}, "outlook": {}, "hotmail": {}, "icloud": {},
		"live": {}, "aol": {}, "protonmail": {}, "proton": {},
	}
	domainSuffixes = map[string]struct{}{
		"com": {}, "in": {}, "co": {}, "uk": {}, "net": {}, "org": {}, "io": {}, "de": {}, "us": {},
	}
)

type merchantMatcher struct {
	name    string
	domains []string
	re      *regexp.Regexp
}

func newMerchantMatcher(m KnownMerchant) merchantMatcher {
	name := strings.TrimSpace(m.Name)
	domains := make([]string, 0, len(m.Domains))
	for _, d := range m.Domains {
		domains = append(domains, strings.ToLower(strings.TrimSpace(d)))
	}
	return merchantMatcher{
		name:    name,
		domains: domains,
		re:      regexp.MustCompile(`(?i)(?:^|[^\pL\pN])` + regexp.QuoteMeta(name) + `(?:$|[^\pL\pN])`),
	}
}

func (m merchantMatcher) ownsDomain(domain string) bool {
	for _, d := range m.domains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// extractMerchant prefers the sender domain, then a known name in the text,
// then the sender's domain label or a "shopping with X" phrase. A missing or
// free mail sender falls back to a From: line quoted in the body, as in
// forwarded receipts.
func (e *Engine) extractMerchant(sender, text string, c *model.Candidate, ev map[string]string) {
	domain, origin := senderDomain(sender), sender
	if domainLabel(domain) == "" {
		if d, line := quotedSender(text); d != "" {
			domain, origin = d, line
		}
	}
	if domain != "" {
		for _, m := range e.merchants {
			if m.ownsDomain(domain) {
				c.MerchantName = model.Found(m.name, knownMerchantConfidence)
				ev["merchant_name"] = origin
				return
			}
		}
	}

	best, bestAt := -1, -1
	for i, m := range e.merchants {
		loc := m.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestAt < 0 || loc[0] < bestAt {
			best, bestAt = i, loc[0]
		}
	}
	if best >= 0 {
		c.MerchantName = model.Found(e.merchants[best].name, knownMerchantConfidence)
		ev["merchant_name"] = snippetAround(text, bestAt)
		return
	}

	if label := domainLabel(domain); label != "" {
		c.MerchantName = model.Found(label, heuristicMerchantConfidence)
		ev["merchant_name"] = origin
		return
	}

	if m := shoppingWithRe.FindStringSubmatch(text); m != nil {
		name := strings.TrimRight(m[1], ".'-")
		if name != "" {
			c.MerchantName = model.Found(name, heuristicMerchantConfidence)
			ev["merchant_name"] = m[0]
		}
	}
}

func senderDomain(sender string) string {
	m := senderDomainRe.FindStringSubmatch(sender)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.ToLower(m[1]), ".")
}

// quotedSender finds the first From: or Sender: line carrying an address.
func quotedSender(text string) (string, string) {
	loc := fromLineRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", ""
	}
	return strings.Trim(strings.ToLower(text[loc[2]:loc[3]]), "."), strings.TrimSpace(text[loc[0]:loc[1]])
}

// domainLabel returns the capitalised registrable label of a sender domain,
// or "" for free mail providers.
func domainLabel(domain string) string {
	if domain == "" {
		return ""
	}
	labels := strings.Split(domain, ".")
	for len(labels) > 1 {
		if _, ok := domainSuffixes[labels[len(labels)-1]]; !ok {
			break
		}
		labels = labels[:len(labels)-1]
	}
	label := labels[len(labels)-1]
	if _, ok := freeMailDomains[label]; ok || label == "" {
		return ""
	}
	r := []rune(label)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func snippetAround(text string, at int) string {
	end := strings.IndexByte(text[at:], '\n')
	if end < 0 {
		end = len(text) - at
	}
	if end > 80 {
		end = 80
	}
	return strings.TrimSpace(text[at : at+end])
}
