package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"css", "unicode", "images"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := run(t, "", "--format", "yaml", "css")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCSSCheckReportsIssues(t *testing.T) {
	out, _, err := run(t, ":root {\n  --brand: ;\n}\n", "css")
	require.Error(t, err)
	assert.Equal(t, ExitIssuesFound, GetExitCode(err))
	assert.Contains(t, out, "<stdin>:2:")
	assert.Contains(t, out, "empty-value")
}

func TestCSSCleanInput(t *testing.T) {
	_, _, err := run(t, ":root {\n  --brand: red;\n}\n", "css")
	assert.NoError(t, err)
	assert.Equal(t, ExitSuccess, GetExitCode(err))
}

func TestCSSFixJSON(t *testing.T) {
	out, _, err := run(t, ":root {\n  --brand: ;\n}\n", "--format", "json", "css", "--fix")
	require.NoError(t, err)

	var res CSSResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Valid)
	require.NotNil(t, res.Fixed)
	assert.Contains(t, *res.Fixed, "--brand: initial;")
	assert.NotEmpty(t, res.Applied)
}

func TestCSSFixWritesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "globals.css")
	require.NoError(t, os.WriteFile(path, []byte("a {\n  color: var(--brand;\n}"), 0o644))

	_, errOut, err := run(t, "", "css", "--fix", "-w", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "applied")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a {\n  color: var(--brand);\n}", string(b))
}

func TestUnicodeFix(t *testing.T) {
	out, _, err := run(t, `Hej v\u00e4rlden`, "unicode", "--fix")
	require.NoError(t, err)
	assert.Equal(t, "Hej världen", out)
}

func TestUnicodeCheck(t *testing.T) {
	out, _, err := run(t, `caf\u00e9 and \\u00e9`, "--format", "json", "unicode")
	require.Error(t, err)
	assert.Equal(t, ExitIssuesFound, GetExitCode(err))

	var res UnicodeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Decoded)
	assert.Nil(t, res.Content)
}

func TestImagesReportsBroken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/ok") {
			w.Header().Set("Content-Type", "image/png")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "page.tsx")
	content := `<img src="` + srv.URL + `/ok.png" /><img src="` + srv.URL + `/gone.png" />`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, _, err := run(t, "", "images", path)
	require.Error(t, err)
	assert.Equal(t, ExitIssuesFound, GetExitCode(err))
	assert.Contains(t, out, "/gone.png")
	assert.NotContains(t, out, "/ok.png")
	assert.Contains(t, out, "checked 2, broken 1, replaced 0")
}

func TestImagesFixNeedsStockCredential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.tsx")
	require.NoError(t, os.WriteFile(path, []byte("<p>no images</p>"), 0o644))

	_, _, err := run(t, "", "images", "--fix", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImagesRequiresFiles(t *testing.T) {
	_, _, err := run(t, "", "images")
	assert.Error(t, err)
}
