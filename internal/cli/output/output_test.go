package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type record struct {
	Name string `json:"name" yaml:"name"`
	Rows int    `json:"rows" yaml:"rows"`
}

func TestNewRenderer_Mode(t *testing.T) {
	assert.Equal(t, ModeJSON, NewRenderer(nil, ModeJSON).Mode())
	assert.Equal(t, ModeYAML, NewRenderer(nil, ModeYAML).Mode())
	assert.Equal(t, ModeText, NewRenderer(nil, "markdown").Mode())
	assert.False(t, NewRenderer(nil, ModeText).Structured())
	assert.True(t, NewRenderer(nil, ModeYAML).Structured())
}

func TestEncode_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, ModeJSON).Encode(record{Name: "levels", Rows: 3}))

	var got record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, record{Name: "levels", Rows: 3}, got)
}

func TestEncode_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, ModeYAML).Encode(record{Name: "rainfall", Rows: 2}))

	assert.Equal(t, "name: rainfall\nrows: 2\n", buf.String())
	var got record
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "rainfall", got.Name)
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, ModeText)
	r.Table([]string{"Date", "POONDI"}, [][]any{{"01-01-2004", 3.5}, {"02-01-2004", ""}})

	out := buf.String()
	assert.Contains(t, out, "POONDI")
	assert.Contains(t, out, "01-01-2004")
	assert.Contains(t, out, "3.5")

	buf.Reset()
	r.Table([]string{"Date"}, nil)
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, ModeText)
	r.Status("Series alignment", true, "")
	r.Status("Date order", false, "(2 errors)")

	out := buf.String()
	assert.Contains(t, out, "Series alignment")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL (2 errors)")
}
