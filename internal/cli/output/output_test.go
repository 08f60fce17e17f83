package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRenderer(out, errOut, mode), out, errOut
}

func TestEffectiveModeAuto(t *testing.T) {
	// A bytes.Buffer is not a terminal, so auto resolves to markdown.
	r, _, _ := newTestRenderer(ModeAuto)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeJSON)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestUnknownModeFallsBackToAuto(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, Mode("yaml"))
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestSuccessAndWarning(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown)

	r.Success("installed")
	r.Warning("shim dir not on PATH")
	r.Error("toolchain missing")

	assert.Contains(t, out.String(), "✓ installed")
	assert.Contains(t, errOut.String(), "! shim dir not on PATH")
	assert.Contains(t, errOut.String(), "✗ toolchain missing")
}

func TestStatusLine(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown)

	r.StatusLine("rustc", "active", "/usr/bin/rustc")
	r.StatusLine("cargo", "broken", "")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "✓ "))
	assert.Contains(t, lines[0], "/usr/bin/rustc")
	assert.True(t, strings.HasPrefix(lines[1], "✗ "))
}

func TestJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"score": 83}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 83, decoded["score"])
}

func TestMarkdownTable(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown)

	r.Table([]string{"TOOL", "STATUS"}, [][]string{
		{"rustc", "active"},
		{"cargo", "inactive"},
	})

	got := out.String()
	assert.Contains(t, got, "| TOOL | STATUS |")
	assert.Contains(t, got, "| --- | --- |")
	assert.Contains(t, got, "| rustc | active |")
}

func TestTextTable(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText)

	r.Table([]string{"TOOL"}, [][]string{{"rustc"}})

	got := out.String()
	assert.Contains(t, got, "TOOL")
	assert.Contains(t, got, "rustc")
	assert.NotContains(t, got, "| --- |", "text mode uses go-pretty, not markdown")
}
