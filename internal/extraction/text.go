package extraction

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// normalize flattens HTML bodies to text and collapses whitespace line by line.
func normalize(body string) string {
	if looksLikeHTML(body) {
		body = flattenHTML(body)
	}
	body = strings.ReplaceAll(body, "\r\n", "\n")

	lines := strings.Split(body, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func looksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range []string{"<html", "<body", "<table", "<div", "<p>", "<br", "<span"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func flattenHTML(body string) string {
	z := html.NewTokenizer(strings.NewReader(body))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch a {
			case atom.Script, atom.Style, atom.Head:
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			case atom.Br, atom.P, atom.Div, atom.Tr, atom.Li, atom.Table, atom.H1, atom.H2, atom.H3, atom.H4:
				b.WriteByte('\n')
			case atom.Td, atom.Th, atom.Span, atom.B, atom.Strong:
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}
