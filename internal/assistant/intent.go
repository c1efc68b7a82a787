// Package assistant answers free-text questions about the loaded
// transactions. A small rule-based classifier resolves the questions it can
// answer locally; everything else goes to a language model.
package assistant

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind enumerates the recognized question intents.
type Kind int

const (
	// General questions are forwarded to the language model.
	General Kind = iota
	// ListTags asks the user to pick a tag for a breakdown.
	ListTags
	// TagBreakdown splits one tag's spend across categories.
	TagBreakdown
)

func (k Kind) String() string {
	switch k {
	case ListTags:
		return "list_tags"
	case TagBreakdown:
		return "tag_breakdown"
	default:
		return "general"
	}
}

// Intent is the classifier output. Tag is set for TagBreakdown only.
type Intent struct {
	Kind Kind
	Tag  string
	Text string
}

var breakdownPattern = regexp.MustCompile(`(?i)break\s*down|\bsplit\b|\bvenn\b|\bby tag\b`)

var quotedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`“([^”]+)”`),
	regexp.MustCompile(`'([^']+)'`),
}

// Classify resolves question against the tag vocabulary. Rules run in a
// fixed order: no breakdown wording means General; a quoted vocabulary tag
// wins over a bare one; among bare mentions the longest tag wins.
func Classify(question string, vocabulary []string) Intent {
	text := strings.TrimSpace(question)
	if !breakdownPattern.MatchString(text) {
		return Intent{Kind: General, Text: text}
	}

	known := make(map[string]string, len(vocabulary))
	for _, tag := range vocabulary {
		known[strings.ToLower(tag)] = tag
	}

	for _, re := range quotedPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if tag, ok := known[strings.ToLower(strings.TrimSpace(m[1]))]; ok {
				return Intent{Kind: TagBreakdown, Tag: tag, Text: text}
			}
		}
	}

	lower := strings.ToLower(text)
	best := ""
	for key, tag := range known {
		if key == "" || !containsWord(lower, key) {
			continue
		}
		if len(key) > len(best) || (len(key) == len(best) && tag < known[best]) {
			best = key
		}
	}
	if best != "" {
		return Intent{Kind: TagBreakdown, Tag: known[best], Text: text}
	}
	return Intent{Kind: ListTags, Text: text}
}

// containsWord reports whether word occurs in s delimited by non-word runes
// or the string edges.
func containsWord(s, word string) bool {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := []rune(s[:i])
	return !isWordRune(r[len(r)-1])
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	for _, r := range s[i:] {
		return !isWordRune(r)
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
