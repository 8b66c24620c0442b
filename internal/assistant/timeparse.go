package assistant

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// dayKeywords maps relative-day phrases to day offsets, checked in order.
// Longer phrases come first so "day after tomorrow" is not swallowed by
// "tomorrow".
var dayKeywords = []struct {
	phrase string
	days   int
}{
	{"day after tomorrow", 2},
	{"tomorrow", 1},
	{"today", 0},
}

var fuzzyParser = func() *when.Parser {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return p
}()

// ResolveTime turns a natural-language fragment into a concrete instant
// relative to ref. Relative-day keywords win over anything else in the
// phrase, including an explicit clock time ("tomorrow at 10am" resolves to
// tomorrow 09:00). That precedence is inherited behavior and callers depend
// on it; tests pin it down.
//
// When no keyword matches, the text is handed to a fuzzy natural-language
// parser seeded with ref. The second return value is false when neither
// path produces a time; callers supply their own default.
func ResolveTime(text string, ref time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)
	for _, kw := range dayKeywords {
		if strings.Contains(lower, kw.phrase) {
			d := ref.AddDate(0, 0, kw.days)
			return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, d.Location()), true
		}
	}

	r, err := fuzzyParser.Parse(text, ref)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return r.Time, true
}
