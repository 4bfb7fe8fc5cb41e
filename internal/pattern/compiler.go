// Package pattern implements the rule matching pipeline: description pattern
// compilation, condition evaluation, and per-rule transaction matching.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/common"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

// DescriptionMode is the UI-level matching mode for description text.
type DescriptionMode string

// Description mode constants.
const (
	ModeContains   DescriptionMode = "contains"
	ModeExact      DescriptionMode = "exact"
	ModeStartsWith DescriptionMode = "starts_with"
	ModeEndsWith   DescriptionMode = "ends_with"
	ModeRegex      DescriptionMode = "regex"
)

// Compile turns a UI-level description mode and raw text into the canonical
// stored pattern and the effective match type. Contains mode stores the text
// literally and keeps the description match type; every other mode produces
// a regex and promotes the rule to the regex match type. The returned
// pattern for non-contains modes is guaranteed to compile.
func Compile(mode DescriptionMode, text string) (string, model.MatchType, error) {
	var compiled string

	switch mode {
	case ModeContains:
		// Literal substring test at match time, never treated as regex.
		return text, model.MatchDescription, nil
	case ModeExact:
		compiled = "^" + escapeLiteral(text) + "$"
	case ModeStartsWith:
		compiled = "^" + escapeLiteral(text)
	case ModeEndsWith:
		compiled = escapeLiteral(text) + "$"
	case ModeRegex:
		// User text verbatim, unescaped and unanchored.
		compiled = text
	default:
		return "", "", common.NewValidationError("mode", fmt.Errorf("unknown description mode %q", mode))
	}

	if _, err := regexp.Compile(compiled); err != nil {
		return "", "", common.NewValidationError("pattern", fmt.Errorf("pattern does not compile: %w", err))
	}

	return compiled, model.MatchRegex, nil
}

// regexSpecials is the set of metacharacters escaped when a literal mode is
// converted to an anchored regex.
const regexSpecials = `.*+?^${}()|[]\`

func escapeLiteral(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 0x80 && strings.ContainsRune(regexSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
