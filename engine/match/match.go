// Package match compares free-text answers against accepted-answer
// patterns. Patterns are pipe-delimited alternatives; the match type
// selects exact, numeric-tolerance, or complexity-notation comparison.
//
// All functions fail closed: an empty or malformed pattern never
// matches, and nothing here returns an error or panics.
package match

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nathoo/neuraldive/types"
)

// Numeric comparison accepts a 1% relative difference, or an absolute
// difference under 0.001 for answers near zero.
const (
	numericRelTolerance = 0.01
	numericAbsTolerance = 0.001
)

// complexitySynonyms groups equivalent spellings of common Big-O
// classes. Keys are canonical names; all members of a set match each
// other.
var complexitySynonyms = [][]string{
	{"constant", "1", "o(1)", "constanttime"},
	{"linear", "n", "o(n)", "lineartime"},
	{"logarithmic", "logn", "o(logn)", "log(n)", "logarithmictime"},
	{"linearithmic", "nlogn", "o(nlogn)", "nlog(n)", "o(nlog(n))"},
	{"quadratic", "n2", "n^2", "o(n2)", "o(n^2)", "quadratictime"},
	{"cubic", "n3", "n^3", "o(n3)", "o(n^3)", "cubictime"},
	{"exponential", "2n", "2^n", "o(2n)", "o(2^n)", "exponentialtime"},
}

var (
	bigORe    = regexp.MustCompile(`(?i)o\s*\(\s*([^)]+)\s*\)`)
	numberRe  = regexp.MustCompile(`-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`)
	spacesRe  = regexp.MustCompile(`\s+`)
)

// Matches reports whether userInput satisfies the accepted pattern
// under the given match type. Unknown match types behave as exact.
func Matches(userInput, pattern string, mt types.MatchType) bool {
	return MatchesCase(userInput, pattern, mt, false)
}

// MatchesCase is Matches with optional case sensitivity for exact
// comparison. Case sensitivity is ignored by numeric and complexity
// matching.
func MatchesCase(userInput, pattern string, mt types.MatchType, caseSensitive bool) bool {
	if strings.TrimSpace(pattern) == "" {
		return false
	}
	switch mt {
	case types.MatchNumeric:
		return matchesNumeric(userInput, pattern)
	case types.MatchComplexity:
		return matchesComplexity(userInput, pattern)
	default:
		return matchesExact(userInput, pattern, caseSensitive)
	}
}

func alternatives(pattern string) []string {
	parts := strings.Split(pattern, "|")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func matchesExact(userInput, pattern string, caseSensitive bool) bool {
	user := strings.TrimSpace(userInput)
	if !caseSensitive {
		user = strings.ToLower(user)
	}
	for _, alt := range alternatives(pattern) {
		if !caseSensitive {
			alt = strings.ToLower(alt)
		}
		if user == alt {
			return true
		}
	}
	return false
}

// matchesNumeric extracts the first numeric token from the user input
// (tolerating surrounding text and units) and accepts it if it is
// within tolerance of any alternative.
func matchesNumeric(userInput, pattern string) bool {
	tok := numberRe.FindString(userInput)
	if tok == "" {
		return false
	}
	user, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return false
	}
	for _, alt := range alternatives(pattern) {
		want, err := strconv.ParseFloat(strings.TrimSpace(alt), 64)
		if err != nil {
			continue
		}
		diff := math.Abs(user - want)
		if diff <= math.Abs(want)*numericRelTolerance || diff < numericAbsTolerance {
			return true
		}
	}
	return false
}

// normalize lowercases and strips all whitespace: "O( N log N )" →
// "o(nlogn)".
func normalize(s string) string {
	return spacesRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// extractBigO pulls the body out of O(...) notation: "O(log n)" →
// "logn". Returns "" when the input carries no Big-O wrapper.
func extractBigO(s string) string {
	m := bigORe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	body := strings.ToLower(m[1])
	body = strings.ReplaceAll(body, " ", "")
	return strings.ReplaceAll(body, "*", "")
}

func synonymSet(term string) []string {
	for _, set := range complexitySynonyms {
		for _, s := range set {
			if s == term {
				return set
			}
		}
	}
	return nil
}

func inSet(term string, set []string) bool {
	for _, s := range set {
		if s == term {
			return true
		}
	}
	return false
}

func matchesComplexity(userInput, pattern string) bool {
	user := normalize(userInput)
	userBigO := extractBigO(userInput)

	for _, alt := range alternatives(pattern) {
		want := normalize(alt)
		wantBigO := extractBigO(alt)

		if user == want {
			return true
		}
		if userBigO != "" && wantBigO != "" && userBigO == wantBigO {
			return true
		}

		// Unrecognized notation falls back to exact behavior above;
		// known classes also match through their synonym set.
		if set := synonymSet(want); set != nil {
			if inSet(user, set) || (userBigO != "" && inSet(userBigO, set)) {
				return true
			}
		}
	}
	return false
}
