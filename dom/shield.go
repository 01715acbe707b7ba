package dom

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Protected substrings are swapped for markers shaped like ⟦0⟧ so that
// providers pass them through untouched.
const (
	markerOpen  = "⟦"
	markerClose = "⟧"
)

var (
	urlPattern         = `(?:https?://|www\.)[^\s<>"']+[^\s<>"'.,;:!?)]`
	emailPattern       = `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`
	placeholderPattern = `\{\{[^{}]*\}\}`
	tokenPattern       = `\{[A-Za-z0-9_.\-]+\}`
	numberPattern      = `\d+(?:[.,:]\d+)*`

	markerRe = regexp.MustCompile(markerOpen + `\d+` + markerClose)
)

// Shield hides substrings that must survive translation verbatim.
type Shield struct {
	re *regexp.Regexp
}

// NewShield builds a shield for URLs, e-mail addresses, {{placeholders}},
// {tokens}, numbers and the given literal terms. Terms win over the
// built-in patterns, and longer terms win over their prefixes.
func NewShield(terms ...string) *Shield {
	var alts []string

	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, t)
		}
	}
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	for _, t := range quoted {
		alts = append(alts, regexp.QuoteMeta(t))
	}

	alts = append(alts, urlPattern, emailPattern, placeholderPattern, tokenPattern, numberPattern)
	return &Shield{re: regexp.MustCompile(strings.Join(alts, "|"))}
}

// Protected is text with its shielded substrings replaced by markers.
type Protected struct {
	Text   string
	values []string
}

// Translatable reports whether anything worth sending to a provider is
// left once the markers are removed.
func (p Protected) Translatable() bool {
	rest := markerRe.ReplaceAllString(p.Text, "")
	for _, r := range rest {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Shielded returns how many substrings were replaced.
func (p Protected) Shielded() int { return len(p.values) }

// Protect replaces every shielded substring in text with a marker.
func (s *Shield) Protect(text string) Protected {
	var values []string
	out := s.re.ReplaceAllStringFunc(text, func(m string) string {
		values = append(values, m)
		return marker(len(values) - 1)
	})
	return Protected{Text: out, values: values}
}

// Restore puts the shielded substrings back into translated. It returns
// false when the provider dropped or duplicated a marker, in which case
// the caller keeps the original text.
func (s *Shield) Restore(p Protected, translated string) (string, bool) {
	for i, v := range p.values {
		m := marker(i)
		if strings.Count(translated, m) != 1 {
			return "", false
		}
		translated = strings.Replace(translated, m, v, 1)
	}
	if markerRe.MatchString(translated) {
		return "", false
	}
	return translated, true
}

func marker(i int) string {
	return fmt.Sprintf("%s%d%s", markerOpen, i, markerClose)
}
