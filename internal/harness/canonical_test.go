package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, `null`},
		{"sorted keys", map[string]any{"b": 1, "a": true, "aa": "x"}, `{"a":true,"aa":"x","b":1}`},
		{"nested", map[string]any{"z": []any{int64(-1), uint64(18446744073709551615)}}, `{"z":[-1,18446744073709551615]}`},
		{"json number", json.Number("42"), `42`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"escapes", "q\"b\\n\n\x01", `"q\"b\\n\n\u0001"`},
		{"nfc", "cafe\u0301", "\"caf\u00e9\""},
		{"empty containers", map[string]any{"l": []any{}, "m": map[string]any{}}, `{"l":[],"m":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+FF61 sorts before U+1F600 by code point but after it in UTF-16,
	// where the emoji is a surrogate pair starting at 0xD83D.
	got, err := MarshalCanonical(map[string]any{"\U0001F600": 1, "｡": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"｡\":2}", string(got))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(json.Number("1.5"))
	assert.Error(t, err)

	_, err = MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"k": struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "k:")
}
