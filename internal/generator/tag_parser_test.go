package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	block := `
     * @notice Deposits funds.
     * @custom:agent-intent Deposit tokens into the vault
     *   for later withdrawal.
     * @custom:agent-risk Reentrancy through token hooks
     * @param amount the amount
     *   continued param text
     * @custom:security-contact sec@example.com
     * @custom:agent-risk Rounding
     `

	tests := []struct {
		name string
		mode ParseMode
		want Tags
	}{
		{
			name: "wrap mode joins continuation lines",
			mode: WrapMode,
			want: Tags{
				{Kind: KindIntent, Value: "Deposit tokens into the vault for later withdrawal."},
				{Kind: KindRisk, Value: "Reentrancy through token hooks"},
				{Kind: KindRisk, Value: "Rounding"},
			},
		},
		{
			name: "line mode keeps the tag line only",
			mode: LineMode,
			want: Tags{
				{Kind: KindIntent, Value: "Deposit tokens into the vault"},
				{Kind: KindRisk, Value: "Reentrancy through token hooks"},
				{Kind: KindRisk, Value: "Rounding"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(block, tt.mode))
		})
	}
}

func TestParseTagsResolution(t *testing.T) {
	block := `
 * @custom:agent-version 1.0
 * @custom:agent-version 2.0
 * @custom:agent-invariant a
 * @custom:agent-invariant b
 * @custom:agent-invariant a
`
	tags := ParseTags(block, LineMode)

	v, ok := tags.Last(KindVersion)
	assert.True(t, ok)
	assert.Equal(t, "2.0", v, "last occurrence wins for singular kinds")

	first, _ := tags.First(KindVersion)
	assert.Equal(t, "1.0", first)

	assert.Equal(t, []string{"a", "b", "a"}, tags.All(KindInvariant), "duplicates are kept in order")
	assert.Nil(t, tags.All(KindEvent))

	_, ok = tags.Last(KindIntent)
	assert.False(t, ok)
}

func TestParseTagsEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		block string
		mode  ParseMode
		want  Tags
	}{
		{
			name:  "single line block",
			block: " @custom:agent-intent Deposit tokens. ",
			mode:  WrapMode,
			want:  Tags{{Kind: KindIntent, Value: "Deposit tokens."}},
		},
		{
			name:  "triple slash leaders",
			block: " @notice x\n    /// @custom:agent-intent Deposit.\n    /// @custom:agent-effect Balance grows.",
			mode:  WrapMode,
			want: Tags{
				{Kind: KindIntent, Value: "Deposit."},
				{Kind: KindEffect, Value: "Balance grows."},
			},
		},
		{
			name:  "bare tag in line mode is dropped",
			block: "\n * @custom:agent-intent\n * Deposit tokens.\n",
			mode:  LineMode,
			want:  nil,
		},
		{
			name:  "bare tag in wrap mode takes the next line",
			block: "\n * @custom:agent-intent\n * Deposit tokens.\n",
			mode:  WrapMode,
			want:  Tags{{Kind: KindIntent, Value: "Deposit tokens."}},
		},
		{
			name:  "unknown agent kind is ignored",
			block: " @custom:agent-mood happy",
			mode:  WrapMode,
			want:  nil,
		},
		{
			name:  "dev and title are reported",
			block: "\n * @title Vault\n * @dev Holds funds.\n",
			mode:  LineMode,
			want: Tags{
				{Kind: KindTitle, Value: "Vault"},
				{Kind: KindDev, Value: "Holds funds."},
			},
		},
		{
			name:  "prose before tags is not a value",
			block: "\n * Some prose.\n * @custom:agent-guidance Read first.\n",
			mode:  WrapMode,
			want:  Tags{{Kind: KindGuidance, Value: "Read first."}},
		},
		{
			name:  "tab separated value",
			block: "@custom:agent-effect\tMints shares",
			mode:  LineMode,
			want:  Tags{{Kind: KindEffect, Value: "Mints shares"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTags(tt.block, tt.mode)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTagKindRepeatable(t *testing.T) {
	repeatable := []TagKind{KindPrecondition, KindEffect, KindRisk, KindInvariant, KindEvent}
	singular := []TagKind{KindVersion, KindDescription, KindIntent, KindGuidance}

	for _, k := range repeatable {
		assert.True(t, k.Repeatable(), string(k))
	}
	for _, k := range singular {
		assert.False(t, k.Repeatable(), string(k))
	}
	assert.Equal(t, DeclContract, KindEvent.Scope())
	assert.Equal(t, DeclFunction, KindRisk.Scope())
}

func TestParseModeFromString(t *testing.T) {
	assert.Equal(t, LineMode, ParseModeFromString("line"))
	assert.Equal(t, LineMode, ParseModeFromString(" LINE "))
	assert.Equal(t, WrapMode, ParseModeFromString("wrap"))
	assert.Equal(t, WrapMode, ParseModeFromString(""))
}
