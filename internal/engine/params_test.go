package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_String(t *testing.T) {
	p := Params{
		"name":   "  cookedzera ",
		"blank":  "   ",
		"id":     float64(20931),
		"ratio":  1.5,
		"number": json.Number("42"),
		"list":   []any{"a"},
	}

	v, ok := p.String("name")
	assert.True(t, ok)
	assert.Equal(t, "cookedzera", v)

	_, ok = p.String("blank")
	assert.False(t, ok)

	v, _ = p.String("id")
	assert.Equal(t, "20931", v)
	v, _ = p.String("ratio")
	assert.Equal(t, "1.5", v)
	v, _ = p.String("number")
	assert.Equal(t, "42", v)

	_, ok = p.String("list")
	assert.False(t, ok)
	_, ok = p.String("absent")
	assert.False(t, ok)
}

func TestParams_IntAndStrings(t *testing.T) {
	p := Params{"limit": "25", "bad": "many", "f": float64(7), "keys": []any{"a", " ", "b"}, "csv": "x, y,,z"}

	assert.Equal(t, 25, p.Int("limit", 10))
	assert.Equal(t, 10, p.Int("bad", 10))
	assert.Equal(t, 7, p.Int("f", 10))
	assert.Equal(t, 3, p.Int("absent", 3))

	assert.Equal(t, []string{"a", "b"}, p.Strings("keys"))
	assert.Equal(t, []string{"x", "y", "z"}, p.Strings("csv"))
	assert.Empty(t, p.Strings("absent"))
}

func TestParseAssignments(t *testing.T) {
	p, err := ParseAssignments([]string{"userkey=cookedzera", " limit = 5 ", "userkeys=a,b"})
	require.NoError(t, err)
	assert.Equal(t, "cookedzera", p["userkey"])
	assert.Equal(t, 5, p.Int("limit", 0))
	assert.Equal(t, []string{"a", "b"}, p.Strings("userkeys"))

	_, err = ParseAssignments([]string{"novalue"})
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, clampLimit(0, 10, 100))
	assert.Equal(t, 100, clampLimit(500, 10, 100))
	assert.Equal(t, 42, clampLimit(42, 10, 100))
}
