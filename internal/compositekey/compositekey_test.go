package compositekey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFormat(t *testing.T) {
	key, err := Build("ownership", []string{"alice@example.com", "9784274068560"})
	require.NoError(t, err)
	assert.Equal(t, "\x00ownership\x00alice@example.com\x009784274068560\x00", key)
}

func TestBuildSplitRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		objectType string
		attrs      []string
	}{
		{"no attrs", "ownership", []string{}},
		{"one attr", "ownership", []string{"alice@example.com"}},
		{"two attrs", "ownership", []string{"alice@example.com", "9784274068560"}},
		{"empty attr", "index", []string{"", "x"}},
		{"unicode", "名前", []string{"寿司", "🍣"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Build(tt.objectType, tt.attrs)
			require.NoError(t, err)

			objectType, attrs, err := Split(key)
			require.NoError(t, err)
			assert.Equal(t, tt.objectType, objectType)
			assert.Equal(t, tt.attrs, attrs)
		})
	}
}

func TestBuildRejectsBadComponents(t *testing.T) {
	tests := []struct {
		name       string
		objectType string
		attrs      []string
	}{
		{"empty object type", "", nil},
		{"delimiter in attr", "ownership", []string{"a\x00b"}},
		{"control char", "ownership", []string{"a\nb"}},
		{"max rune", "ownership", []string{"a\U0010FFFF"}},
		{"invalid utf8", "own\xffership", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.objectType, tt.attrs)
			var mk *MalformedKeyError
			require.True(t, errors.As(err, &mk), "got %v", err)
		})
	}
}

func TestSplitRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "plain", "\x00", "\x00\x00", "\x00ownership"} {
		_, _, err := Split(key)
		var mk *MalformedKeyError
		assert.True(t, errors.As(err, &mk), "key %q", key)
	}
}

func TestPartialRange(t *testing.T) {
	start, end, err := PartialRange("ownership", []string{"alice@example.com"})
	require.NoError(t, err)

	inside, err := Build("ownership", []string{"alice@example.com", "9784274068560"})
	require.NoError(t, err)
	other, err := Build("ownership", []string{"alicia@example.com", "9784274068560"})
	require.NoError(t, err)

	assert.True(t, inside >= start && inside < end)
	assert.False(t, other >= start && other < end)
}

func TestCompositeSortsBeforeSimpleKeys(t *testing.T) {
	key, err := Build("ownership", nil)
	require.NoError(t, err)
	assert.True(t, IsComposite(key))
	assert.False(t, IsComposite("alice@example.com"))
	assert.Less(t, key, "0")
}
