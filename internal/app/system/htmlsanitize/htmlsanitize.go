// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Package htmlsanitize cleans user-supplied rich text (blog content,
// property descriptions) before it is stored.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richOnce sync.Once
	rich     *bluemonday.Policy

	strict = bluemonday.StrictPolicy()
)

func richPolicy() *bluemonday.Policy {
	richOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td", "p", "span", "div")
		p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		p.AllowElements("mark", "u", "s")
		p.RequireNoFollowOnLinks(true)
		rich = p
	})
	return rich
}

// Sanitize keeps safe formatting markup (paragraphs, emphasis, lists,
// headings, tables, links) and strips scripts, event handlers, iframes and
// styles.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy().Sanitize(s)
}

// StripTags removes all markup, leaving text. Used to derive excerpts.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(strict.Sanitize(s))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}

// Excerpt returns at most n runes of s's text content, cut at a word
// boundary when one is near, with an ellipsis when truncated.
func Excerpt(s string, n int) string {
	text := strings.Join(strings.Fields(StripTags(s)), " ")
	r := []rune(text)
	if n <= 0 || len(r) <= n {
		return text
	}
	cut := r[:n]
	if i := strings.LastIndex(string(cut), " "); i > 0 && i > len(string(cut))-20 {
		return string(cut)[:i] + "…"
	}
	return string(cut) + "…"
}
