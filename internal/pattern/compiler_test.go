package pattern

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/common"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name          string
		mode          DescriptionMode
		text          string
		wantPattern   string
		wantMatchType model.MatchType
	}{
		{
			name:          "contains stored literally",
			mode:          ModeContains,
			text:          "SALARY",
			wantPattern:   "SALARY",
			wantMatchType: model.MatchDescription,
		},
		{
			name:          "contains never escaped",
			mode:          ModeContains,
			text:          "A.B (C)",
			wantPattern:   "A.B (C)",
			wantMatchType: model.MatchDescription,
		},
		{
			name:          "exact escapes and anchors both ends",
			mode:          ModeExact,
			text:          "AMAZON.CO.UK",
			wantPattern:   `^AMAZON\.CO\.UK$`,
			wantMatchType: model.MatchRegex,
		},
		{
			name:          "starts_with anchors front",
			mode:          ModeStartsWith,
			text:          "SALARY",
			wantPattern:   "^SALARY",
			wantMatchType: model.MatchRegex,
		},
		{
			name:          "ends_with anchors back",
			mode:          ModeEndsWith,
			text:          "LTD",
			wantPattern:   "LTD$",
			wantMatchType: model.MatchRegex,
		},
		{
			name:          "metacharacters escaped in literal modes",
			mode:          ModeExact,
			text:          `a*b+c?{}|[]()^$\`,
			wantPattern:   `^a\*b\+c\?\{\}\|\[\]\(\)\^\$\\$`,
			wantMatchType: model.MatchRegex,
		},
		{
			name:          "raw regex passes through verbatim",
			mode:          ModeRegex,
			text:          `^TESCO.*\d{4}$`,
			wantPattern:   `^TESCO.*\d{4}$`,
			wantMatchType: model.MatchRegex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, matchType, err := Compile(tt.mode, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPattern, pattern)
			assert.Equal(t, tt.wantMatchType, matchType)
		})
	}
}

func TestCompile_EscapedPatternMatchesOriginal(t *testing.T) {
	// The escaped exact pattern must match exactly the original text.
	pattern, _, err := Compile(ModeExact, "AMAZON.CO.UK")
	require.NoError(t, err)

	re := regexp.MustCompile(pattern)
	assert.True(t, re.MatchString("AMAZON.CO.UK"))
	assert.False(t, re.MatchString("AMAZONXCOXUK"), "escaped dot must not act as wildcard")
	assert.False(t, re.MatchString("PREFIX AMAZON.CO.UK"))
}

func TestCompile_InvalidRegex(t *testing.T) {
	_, _, err := Compile(ModeRegex, "[unclosed")
	require.Error(t, err)
	assert.True(t, common.IsValidation(err), "compile failure should be a validation error")
}

func TestCompile_UnknownMode(t *testing.T) {
	_, _, err := Compile(DescriptionMode("fuzzy"), "text")
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
}
