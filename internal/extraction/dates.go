package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

const (
	labeledDateConfidence   = 0.8
	unlabeledDateConfidence = 0.3
)

const (
	monthName    = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	weekdayName  = `(?:(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s+)?`
	dayMonthYear = `\d{1,2}(?:st|nd|rd|th)?\s+` + monthName + `\.?,?\s+\d{4}`
	monthDayYear = monthName + `\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}`
	isoDate      = `\d{4}-\d{1,2}-\d{1,2}`
	numericDate  = `\d{1,2}[/.\-]\d{1,2}[/.\-]\d{4}`
	dateLike     = weekdayName + `(` + dayMonthYear + `|` + monthDayYear + `|` + isoDate + `|` + numericDate + `)`
)

var (
	dateRe = regexp.MustCompile(`(?i)\b` + dateLike)

	deliveryLabelRe = regexp.MustCompile(`(?i)\b(?:delivered(?:\s+on)?|delivery\s+date|date\s+of\s+delivery|package\s+delivered(?:\s+on)?|arrived(?:\s+on)?)\s*[:\-]?\s*(?:on\s+)?` + dateLike)
	orderLabelRe    = regexp.MustCompile(`(?i)\b(?:order\s+date|ordered\s+on|order(?:ed)?\s+placed(?:\s+on)?|placed\s+on|purchased?\s+on|date\s+of\s+purchase|invoice\s+date|order\s+confirmed\s+on)\s*[:\-]?\s*(?:on\s+)?` + dateLike)

	ordinalRe  = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
	numericRe  = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})$`)
	isoRe      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	monthWords = map[string]string{
		"jan": "Jan", "feb": "Feb", "mar": "Mar", "apr": "Apr", "may": "May", "jun": "Jun",
		"jul": "Jul", "aug": "Aug", "sep": "Sep", "oct": "Oct", "nov": "Nov", "dec": "Dec",
	}
	estimateHints = []string{"expected", "estimated", "arriving", "expect"}
)

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

type dateMatch struct {
	date    time.Time
	snippet string
	span    span
}

// extractDates fills order and delivery dates. Label-anchored dates win; an
// unlabeled date is only used as the order date when no label matched.
func (e *Engine) extractDates(text string, c *model.Candidate, ev map[string]string) {
	var used []span

	if m, ok := e.firstLabeledDate(text, deliveryLabelRe, true); ok {
		c.DeliveryDate = model.Found(m.date, labeledDateConfidence)
		ev["delivery_date"] = m.snippet
		used = append(used, m.span)
	}
	if m, ok := e.firstLabeledDate(text, orderLabelRe, false); ok {
		c.OrderDate = model.Found(m.date, labeledDateConfidence)
		ev["order_date"] = m.snippet
		used = append(used, m.span)
	}
	if c.OrderDate.Present {
		return
	}

	for _, loc := range dateRe.FindAllStringSubmatchIndex(text, -1) {
		s := span{loc[0], loc[1]}
		if overlapsAny(s, used) || precededByEstimate(text, loc[0]) {
			continue
		}
		date, err := e.parseDate(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		if c.DeliveryDate.Present && date.After(c.DeliveryDate.Value) {
			continue
		}
		c.OrderDate = model.Found(date, unlabeledDateConfidence)
		ev["order_date"] = text[loc[0]:loc[1]]
		return
	}
}

func (e *Engine) firstLabeledDate(text string, re *regexp.Regexp, skipEstimates bool) (dateMatch, bool) {
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if skipEstimates && precededByEstimate(text, loc[0]) {
			continue
		}
		date, err := e.parseDate(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		return dateMatch{date: date, snippet: text[loc[0]:loc[1]], span: span{loc[0], loc[1]}}, true
	}
	return dateMatch{}, false
}

func precededByEstimate(text string, at int) bool {
	from := at - 24
	if from < 0 {
		from = 0
	}
	window := strings.ToLower(text[from:at])
	for _, hint := range estimateHints {
		if strings.Contains(window, hint) {
			return true
		}
	}
	return false
}

func overlapsAny(s span, spans []span) bool {
	for _, o := range spans {
		if s.overlaps(o) {
			return true
		}
	}
	return false
}

// parseDate canonicalizes a matched date substring and hands it to dateparse.
// Numeric dates are read month-first unless Options.DayFirst is set.
func (e *Engine) parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(ordinalRe.ReplaceAllString(raw, "$1"))

	if m := numericRe.FindStringSubmatch(s); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		day, month := first, second
		if !e.opts.DayFirst {
			day, month = second, first
		}
		s = fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	} else if m := isoRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		s = fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	} else {
		s = canonicalWordDate(s)
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return model.DateOf(t), nil
}

// canonicalWordDate rewrites "10th Oct., 2025" / "October 10 2025" into the
// "10 Oct 2025" or "Oct 10, 2025" layouts.
func canonicalWordDate(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '.' })
	if len(fields) < 3 {
		return s
	}
	fields = fields[len(fields)-3:]
	if abbr, ok := monthWords[strings.ToLower(prefix(fields[1], 3))]; ok {
		return fields[0] + " " + abbr + " " + fields[2]
	}
	if abbr, ok := monthWords[strings.ToLower(prefix(fields[0], 3))]; ok {
		return abbr + " " + fields[1] + ", " + fields[2]
	}
	return s
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
