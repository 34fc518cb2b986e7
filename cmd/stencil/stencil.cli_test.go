package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test data constants
const (
	testTemplateContent = "Hello, {$user}!"
	testDataJSON        = `{"user": "Alice"}`
	testDataYAML        = "user: Yaml\n"
	testExpectedOutput  = "Hello, Alice!"
	testInvalidContent  = "{if ready}never closed"
	testGrammarContent  = `
families:
  - name: angle
    opener: "<<"
    closer: ">>"
    handler: output
`
)

// setupTestData creates test files in a temp directory
func setupTestData(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	files := map[string]string{
		"template.txt": testTemplateContent,
		"data.json":    testDataJSON,
		"data.yaml":    testDataYAML,
		"data.toml":    "user = 1",
		"invalid.txt":  testInvalidContent,
		"angle.yaml":   testGrammarContent,
		"angle.txt":    "Hi <<$user>> {$user}",
		"bad.yaml":     "families: [",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte(content), FilePermissions))
	}
	return tmpDir
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

// ==================== run() dispatch tests ====================

func TestRun_NoArgs_ShowsHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "")

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, CLIName)
	assert.Contains(t, stdout, CmdNameRender)
}

func TestRun_UnknownCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "frobnicate")

	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stdout, ErrMsgUnknownCommand)
	assert.Contains(t, stdout, "frobnicate")
}

func TestRun_HelpForEveryCommand(t *testing.T) {
	for _, cmd := range []string{
		CmdNameRender, CmdNameValidate, CmdNameDebug, CmdNameGrammar,
		CmdNameSave, CmdNameView, CmdNameVersion, CmdNameHelp,
	} {
		code, stdout, _ := runCLI(t, "", CmdNameHelp, cmd)
		assert.Equal(t, ExitCodeSuccess, code, cmd)
		assert.Contains(t, stdout, "Usage:", cmd)
	}
}

// ==================== render ====================

func TestRender(t *testing.T) {
	dir := setupTestData(t)
	tpl := filepath.Join(dir, "template.txt")

	t.Run("json string", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "", CmdNameRender, "-t", tpl, "-d", testDataJSON)
		assert.Equal(t, ExitCodeSuccess, code, stderr)
		assert.Equal(t, testExpectedOutput, stdout)
	})

	t.Run("json file", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameRender, "--template", tpl, "--data-file", filepath.Join(dir, "data.json"))
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, testExpectedOutput, stdout)
	})

	t.Run("yaml file", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", tpl, "-f", filepath.Join(dir, "data.yaml"))
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "Hello, Yaml!", stdout)
	})

	t.Run("stdin template", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "{foreach $n in $nums}{$n}{/foreach}", CmdNameRender, "-t", "-", "-d", `{"nums":[1,2.5,3]}`)
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "12.53", stdout)
	})

	t.Run("output file", func(t *testing.T) {
		out := filepath.Join(dir, "out.txt")
		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", tpl, "-d", testDataJSON, "-o", out)
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Empty(t, stdout)

		written, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, testExpectedOutput, string(written))
	})

	t.Run("custom grammar", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", filepath.Join(dir, "angle.txt"), "-g", filepath.Join(dir, "angle.yaml"), "-d", testDataJSON)
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "Hi Alice {$user}", stdout)
	})

	t.Run("missing as empty", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", tpl, "--missing-empty")
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "Hello, !", stdout)
	})

	t.Run("verbose logs to stderr", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameRender, "-t", tpl, "-d", testDataJSON, "-v")
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Contains(t, stderr, "engine created")
	})
}

func TestRender_Errors(t *testing.T) {
	dir := setupTestData(t)
	tpl := filepath.Join(dir, "template.txt")

	tests := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{"no template", []string{}, ExitCodeUsageError, ErrMsgMissingTemplate},
		{"unknown flag", []string{"-t", tpl, "--nope"}, ExitCodeUsageError, ErrMsgInvalidArguments},
		{"missing file", []string{"-t", filepath.Join(dir, "nope.txt")}, ExitCodeInputError, ErrMsgReadFileFailed},
		{"bad json", []string{"-t", tpl, "-d", "{"}, ExitCodeInputError, ErrMsgInvalidData},
		{"both data sources", []string{"-t", tpl, "-d", testDataJSON, "-f", filepath.Join(dir, "data.json")}, ExitCodeInputError, ErrMsgBothDataSources},
		{"unknown data format", []string{"-t", tpl, "-f", filepath.Join(dir, "data.toml")}, ExitCodeInputError, ErrMsgUnknownDataFormat},
		{"bad grammar", []string{"-t", tpl, "-g", filepath.Join(dir, "bad.yaml")}, ExitCodeInputError, ErrMsgGrammarLoadFailed},
		{"compile error", []string{"-t", filepath.Join(dir, "invalid.txt")}, ExitCodeError, ErrMsgCompileFailed},
		{"render error", []string{"-t", tpl}, ExitCodeError, ErrMsgExecuteFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", append([]string{CmdNameRender}, tt.args...)...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, tt.stderr)
			assert.Empty(t, stdout)
		})
	}
}

// ==================== validate ====================

func TestValidate(t *testing.T) {
	dir := setupTestData(t)

	t.Run("valid text", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameValidate, "-t", filepath.Join(dir, "template.txt"))
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Contains(t, stdout, ValidationTextSuccess)
	})

	t.Run("invalid text", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameValidate, "-t", filepath.Join(dir, "invalid.txt"))
		assert.Equal(t, ExitCodeError, code)
		assert.Contains(t, stdout, "Template is invalid")
		assert.Contains(t, stdout, "line 1, column 1")
	})

	t.Run("suggestions json", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "{foreah $x in $y}{/foreah}", CmdNameValidate, "-t", "-", "-F", OutputFormatJSON)
		assert.Equal(t, ExitCodeError, code)

		var out validationOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.False(t, out.Valid)
		assert.Equal(t, "STENCIL_UNKNOWN_TAG", out.Kind)
		assert.Contains(t, out.Suggestions, "foreach")
		assert.Equal(t, 1, out.Line)
	})

	t.Run("valid json", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "plain", CmdNameValidate, "-t", "-", "--format", OutputFormatJSON)
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Contains(t, stdout, `"valid": true`)
	})

	t.Run("bad format", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameValidate, "-t", "-", "-F", "xml")
		assert.Equal(t, ExitCodeUsageError, code)
		assert.Contains(t, stderr, ErrMsgInvalidFormat)
	})
}

// ==================== debug ====================

func TestDebug(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "a{if x}b{/if}", CmdNameDebug, "-t", "-")
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Contains(t, stdout, DebugHeaderTree)
		assert.Contains(t, stdout, DebugHeaderProgram)
		assert.Contains(t, stdout, "statement:if")
	})

	t.Run("json", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "a{if x}b{/if}", CmdNameDebug, "-t", "-", "--json")
		assert.Equal(t, ExitCodeSuccess, code)

		var out debugOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.True(t, out.Valid)
		require.Len(t, out.Nodes, 4)
		assert.Equal(t, "ROOT", out.Nodes[0].Kind)
		assert.NotEmpty(t, out.Program)
	})

	t.Run("json with error", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "{if x}", CmdNameDebug, "-t", "-", "--json")
		assert.Equal(t, ExitCodeError, code)
		assert.Contains(t, stderr, ErrMsgCompileFailed)

		var out debugOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.False(t, out.Valid)
		require.NotNil(t, out.Error)
		assert.Equal(t, "STENCIL_UNBALANCED_TAG", out.Error.Kind)
	})
}

// ==================== grammar ====================

func TestGrammar(t *testing.T) {
	dir := setupTestData(t)

	t.Run("standard", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameGrammar)
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Contains(t, stdout, "name: statement")
		assert.Contains(t, stdout, "name: foreach")
	})

	t.Run("file round trip", func(t *testing.T) {
		out := filepath.Join(dir, "normalised.yaml")
		code, _, _ := runCLI(t, "", CmdNameGrammar, "-g", filepath.Join(dir, "angle.yaml"), "-o", out)
		require.Equal(t, ExitCodeSuccess, code)

		code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", filepath.Join(dir, "angle.txt"), "-g", out, "-d", testDataJSON)
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "Hi Alice {$user}", stdout)
	})

	t.Run("bad file", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameGrammar, "-g", filepath.Join(dir, "bad.yaml"))
		assert.Equal(t, ExitCodeInputError, code)
		assert.Contains(t, stderr, ErrMsgGrammarLoadFailed)
	})
}

// ==================== save / view ====================

func TestSaveAndView(t *testing.T) {
	dir := setupTestData(t)
	store := filepath.Join(dir, "views")

	code, stdout, stderr := runCLI(t, "Hi {$user}", CmdNameSave, "-s", store, "-n", "mail/welcome.tpl", "-t", "-")
	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "saved mail/welcome version 1\n", stdout)

	code, stdout, _ = runCLI(t, "Bye {$user}", CmdNameSave, "-s", store, "-n", "mail/welcome", "-t", "-")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, "version 2")

	code, stdout, _ = runCLI(t, "", CmdNameView, "-s", store, "-n", "mail/welcome", "-d", testDataJSON)
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "Bye Alice", stdout)

	code, stdout, _ = runCLI(t, "", CmdNameView, "-s", store, "-n", "mail/welcome", "--version", "1", "-f", filepath.Join(dir, "data.yaml"))
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "Hi Yaml", stdout)
}

func TestSaveAndView_Errors(t *testing.T) {
	dir := setupTestData(t)
	store := filepath.Join(dir, "views")

	code, _, stderr := runCLI(t, "", CmdNameSave, "-n", "x", "-t", "-")
	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, ErrMsgMissingStore)

	code, _, stderr = runCLI(t, "", CmdNameView, "-s", store)
	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, ErrMsgMissingName)

	code, _, stderr = runCLI(t, testInvalidContent, CmdNameSave, "-s", store, "-n", "broken", "-t", "-")
	assert.Equal(t, ExitCodeError, code)
	assert.Contains(t, stderr, ErrMsgSaveFailed)

	code, _, stderr = runCLI(t, "", CmdNameView, "-s", store, "-n", "missing")
	assert.Equal(t, ExitCodeError, code)
	assert.Contains(t, stderr, ErrMsgViewFailed)

	code, _, stderr = runCLI(t, "", CmdNameView, "-s", store, "-n", "x", "--driver", "nope")
	assert.Equal(t, ExitCodeInputError, code)
	assert.Contains(t, stderr, ErrMsgStorageOpenFailed)
}

// ==================== version ====================

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "", CmdNameVersion)
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, "go-stencil version")

	code, stdout, _ = runCLI(t, "", CmdNameVersion, "-F", OutputFormatJSON)
	assert.Equal(t, ExitCodeSuccess, code)
	var out versionOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.NotEmpty(t, out.Version)

	code, _, _ = runCLI(t, "", CmdNameVersion, "-F", "xml")
	assert.Equal(t, ExitCodeUsageError, code)
}
