package item

import (
	"regexp"
	"sort"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize normalizes a name for comparison:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Collapse internal whitespace to single spaces
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return s
}

// Tokenize splits text into lowercase word tokens. Punctuation is
// stripped at token boundaries so "bill," and "bill" match the same
// keyword.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !isAlphanumeric(r)
		})
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// LearnableKeywords extracts the tokens worth remembering from text:
// purely alphabetic, longer than 4 characters, deduplicated, lowercase.
func LearnableKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, tok := range Tokenize(text) {
		if len(tok) <= 4 || !isAlphabetic(tok) {
			continue
		}
		if !seen[tok] {
			seen[tok] = true
			keywords = append(keywords, tok)
		}
	}
	return keywords
}

// Signature builds the keyword signature used as the confidence-record
// key: the sorted learnable keywords joined by spaces. Sorting keeps
// the signature stable across token order.
func Signature(text string) string {
	keywords := LearnableKeywords(text)
	sort.Strings(keywords)
	return strings.Join(keywords, " ")
}

// MergeKeywords unions two keyword sets with set semantics,
// case-insensitive, preserving first-seen order.
func MergeKeywords(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, kw := range existing {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && !seen[kw] {
			seen[kw] = true
			merged = append(merged, kw)
		}
	}
	for _, kw := range incoming {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && !seen[kw] {
			seen[kw] = true
			merged = append(merged, kw)
		}
	}
	return merged
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
