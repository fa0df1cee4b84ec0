package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		"Port side":              "Port side",
		`"Port side"`:            "Port side",
		`"the ""tail"" cam"`:     `the "tail" cam`,
		`""`:                     "",
		`"`:                      `"`,
		`{"label":""}`:           `{"label":""}`,
		`"open`:                  `"open`,
		`"nested "" "" quotes"`:  `nested " " quotes`,
		`'single'`:               `'single'`,
	}
	for in, want := range tests {
		assert.Equal(t, want, Unquote(in), in)
	}
}

func TestJSONString(t *testing.T) {
	for _, s := range []string{"", "Nose", `say "cheese"`, "a\\b", "<aft> & fore", "tab\there"} {
		out := JSONString(s)
		var back string
		require.NoError(t, json.Unmarshal([]byte(out), &back), out)
		assert.Equal(t, s, back)
	}
	assert.Equal(t, `"<aft> & fore"`, JSONString("<aft> & fore"))
}
