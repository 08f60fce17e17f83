package shim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	spec := Spec{
		Tool:     "rustc",
		RealPath: "/usr/bin/rustc",
		Version:  "1.2.3",
	}

	body, err := spec.Render()
	require.NoError(t, err)

	script := string(body)
	assert.True(t, strings.HasPrefix(script, "#!/bin/sh\n"), "script should start with a shebang")
	assert.Contains(t, script, Marker+" v1.2.3 tool=rustc")
	assert.Contains(t, script, `exec "/usr/bin/rustc" "$@"`)
	assert.Contains(t, script, QuietEnv, "banner must be suppressible")
	for _, line := range DefaultBanner {
		assert.Contains(t, script, line)
	}
}

func TestRenderCustomBanner(t *testing.T) {
	spec := Spec{
		Tool:     "cargo",
		RealPath: "/usr/bin/cargo",
		Version:  "1.2.3",
		Banner:   []string{"hello from the wrapper"},
	}

	body, err := spec.Render()
	require.NoError(t, err)
	assert.Contains(t, string(body), "hello from the wrapper")
	assert.NotContains(t, string(body), DefaultBanner[0])
}

func TestRenderRejectsIncompleteSpec(t *testing.T) {
	_, err := Spec{Tool: "rustc"}.Render()
	assert.Error(t, err)

	_, err = Spec{Tool: "rustc", RealPath: "relative/rustc"}.Render()
	assert.Error(t, err, "relative targets would break once PATH changes")
}

func TestWriteAndInspect(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{
		Tool:     "rustc",
		RealPath: "/usr/bin/rustc",
		Version:  "0.9.0",
	}

	path, err := spec.Write(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rustc"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o111, "shim must be executable")

	assert.True(t, IsShim(path))

	target, err := Target(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/rustc", target)

	assert.Equal(t, "rustc", ToolName(path))
}

func TestIsShimOnRegularFiles(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "script")
	require.NoError(t, os.WriteFile(plain, []byte("#!/bin/sh\necho hi\n"), 0o755))
	assert.False(t, IsShim(plain))

	assert.False(t, IsShim(filepath.Join(dir, "missing")))

	// Marker buried deep in the file does not count; real binaries could
	// contain the string by accident.
	deep := filepath.Join(dir, "deep")
	content := "#!/bin/sh\n\n\n\n\n\n" + Marker + "\n"
	require.NoError(t, os.WriteFile(deep, []byte(content), 0o755))
	assert.False(t, IsShim(deep))
}

func TestPrintBanner(t *testing.T) {
	t.Setenv(QuietEnv, "")

	var buf strings.Builder
	PrintBanner(&buf, nil, false)
	for _, line := range DefaultBanner {
		assert.Contains(t, buf.String(), line)
	}

	buf.Reset()
	PrintBanner(&buf, []string{"custom banner"}, false)
	assert.Equal(t, "custom banner\n", buf.String())

	buf.Reset()
	PrintBanner(&buf, nil, true)
	assert.Empty(t, buf.String(), "quiet flag suppresses the banner")

	buf.Reset()
	t.Setenv(QuietEnv, "1")
	PrintBanner(&buf, nil, false)
	assert.Empty(t, buf.String(), "env var suppresses the banner like the shell shims")
}

func TestTargetRejectsNonShim(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(plain, []byte("echo hi\n"), 0o755))

	_, err := Target(plain)
	assert.Error(t, err)
}
