package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/thinhvd77/Tax/internal/model"
)

var (
	numberPrefixRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// ToNumber converts a raw cell value to a number.
// Blank, nil and unparseable values become 0. Spaces and thousands separators are ignored.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		f, _ := ParseNumber(n)
		return f
	}
	return 0
}

// ParseNumber parses the leading number of s after dropping whitespace and commas.
// ok is false when no number could be read.
func ParseNumber(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return finite(f), !math.IsNaN(f)
	}
	prefix := numberPrefixRe.FindString(cleaned)
	if prefix == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return finite(f), true
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseOrdinal reads an STT cell. Only a cell that is entirely a number counts.
func ParseOrdinal(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// IsText reports whether a cell holds a non-empty value that is not a plain number.
func IsText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err != nil
}

// NormalizeName derives the join key used across all sources.
// NFD decomposition, combining marks dropped, đ folded to d, whitespace collapsed, lowercased.
func NormalizeName(name string) model.NormalizedKey {
	return model.NormalizedKey(FoldText(name))
}

// FoldText strips Vietnamese diacritics and case from s.
func FoldText(s string) string {
	if s == "" {
		return ""
	}
	// Transformers keep state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		switch r {
		case 'đ', 'Đ':
			return 'd'
		}
		return r
	}, folded)
	folded = whitespaceRe.ReplaceAllString(strings.TrimSpace(folded), " ")
	return strings.ToLower(folded)
}

// StartsWithDigit reports whether the trimmed name begins with a digit
func StartsWithDigit(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return name[0] >= '0' && name[0] <= '9'
}

// NormalizeColumnName trims a header and collapses its whitespace
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\t", " ")
	name = whitespaceRe.ReplaceAllString(name, " ")
	return norm.NFC.String(name)
}

// ContainsAny reports whether text contains any keyword.
// Both sides are folded, so "Lương V1" matches "luong v1".
func ContainsAny(text string, keywords []string) bool {
	folded := FoldText(text)
	for _, kw := range keywords {
		if kw = FoldText(kw); kw != "" && strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
