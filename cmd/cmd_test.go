package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentic-research/quotaframe/internal/codec"
	"github.com/agentic-research/quotaframe/internal/config"
	"github.com/agentic-research/quotaframe/internal/store"
	"github.com/agentic-research/quotaframe/internal/validate"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validPlan = `
target = 100

variable "Gender" {
  odin_name = "gender"
  levels    = ["Male", "Female"]
}

variable "Region" {
  odin_name = "region"
  levels    = ["North", "South"]
}

structure {
  nest "Gender" {
    nest "Region" {}
  }
}

level "Gender" "Male" {
  target     = 50
  max_target = 60
}
`

// invalidPlan asks for more completes under Male than its max target allows.
const invalidPlan = `
variable "Gender" {
  odin_name = "gender"
  levels    = ["Male", "Female"]
}

variable "Region" {
  odin_name = "region"
  levels    = ["North", "South"]
}

structure {
  nest "Gender" {
    nest "Region" {}
  }
}

level "Gender" "Male" {
  max_target = 10

  level "Region" "North" {
    target = 8
  }

  level "Region" "South" {
    target = 8
  }
}
`

type harness struct {
	dir string
	db  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{dir: dir, db: filepath.Join(dir, "frames.db")}
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", h.db, "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestBuildToStdout(t *testing.T) {
	h := newHarness(t)
	planPath := h.write(t, "frame.hcl", validPlan)

	out, err := h.run(t, "build", planPath)
	require.NoError(t, err)

	f, err := codec.Unmarshal([]byte(out), codec.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Definitions.Len())
	assert.Equal(t, 50, *f.MustLevel("Gender", "Male").Target)
	assert.True(t, validate.Validate(f).IsValid)
}

func TestBuildToFileThenValidate(t *testing.T) {
	h := newHarness(t)
	planPath := h.write(t, "frame.hcl", validPlan)
	framePath := filepath.Join(h.dir, "frame.json")

	_, err := h.run(t, "build", planPath, "-o", framePath)
	require.NoError(t, err)
	require.FileExists(t, framePath)

	out, err := h.run(t, "validate", framePath)
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)
}

func TestBuildNoTargets(t *testing.T) {
	h := newHarness(t)
	planPath := h.write(t, "frame.hcl", validPlan)

	out, err := h.run(t, "--no-targets", "build", planPath)
	require.NoError(t, err)
	assert.NotContains(t, out, `"target"`)
	assert.NotContains(t, out, `"maxTarget"`)
}

func TestBuildRefusesInvalid(t *testing.T) {
	h := newHarness(t)
	planPath := h.write(t, "bad.hcl", invalidPlan)
	framePath := filepath.Join(h.dir, "bad.json")

	out, err := h.run(t, "build", planPath, "-o", framePath)
	require.ErrorIs(t, err, ErrInvalidFrame)
	assert.Contains(t, out, string(validate.CodeNestedTargetsAboveMax))
	assert.NoFileExists(t, framePath)

	_, err = h.run(t, "build", planPath, "-o", framePath, "--force")
	require.NoError(t, err)
	assert.FileExists(t, framePath)
}

func TestValidateInvalid(t *testing.T) {
	h := newHarness(t)
	planPath := h.write(t, "bad.hcl", invalidPlan)

	out, err := h.run(t, "validate", planPath)
	require.ErrorIs(t, err, ErrInvalidFrame)
	assert.Contains(t, out, "nested_targets_above_max_target: ")
	assert.Contains(t, out, "expected at most 16, but was 10")
}

func TestValidateJSON(t *testing.T) {
	h := newHarness(t)
	planPath := h.write(t, "bad.hcl", invalidPlan)

	out, err := h.run(t, "validate", "--json", planPath)
	require.Error(t, err)
	assert.Contains(t, out, `"isValid": false`)
	assert.Contains(t, out, `"code": "nested_targets_above_max_target"`)
}

func TestValidateMissingFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "validate", filepath.Join(h.dir, "nope.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidFrame)
}

func TestQuery(t *testing.T) {
	h := newHarness(t)
	planPath := h.write(t, "frame.hcl", validPlan)

	out, err := h.run(t, "query", planPath, "$.variableDefinitions[*].name")
	require.NoError(t, err)
	assert.Equal(t, "\"Gender\"\n\"Region\"\n", out)

	out, err = h.run(t, "query", planPath, "$.variables[0].levels[?(@.target > 10)].name")
	require.NoError(t, err)
	assert.Equal(t, "\"Male\"\n", out)
}

func TestStoreLifecycle(t *testing.T) {
	h := newHarness(t)
	good := h.write(t, "frame.hcl", validPlan)
	bad := h.write(t, "bad.hcl", invalidPlan)

	out, err := h.run(t, "store", "put", "wave1", good)
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	out, err = h.run(t, "store", "put", "broken", bad)
	require.NoError(t, err)
	assert.Contains(t, out, "nested_targets_above_max_target")

	out, err = h.run(t, "store", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "broken"))
	assert.Contains(t, lines[1], "false")
	assert.True(t, strings.HasPrefix(lines[2], "wave1"))
	assert.Contains(t, lines[2], "true")

	out, err = h.run(t, "store", "get", "wave1")
	require.NoError(t, err)
	f, err := codec.Unmarshal([]byte(out), codec.Options{})
	require.NoError(t, err)
	assert.Equal(t, 100, *f.Target)

	out, err = h.run(t, "store", "nodes", "wave1")
	require.NoError(t, err)
	// header plus Gender, 2 levels, 2 Region variables with 2 levels each
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1+9)

	_, err = h.run(t, "store", "rm", "wave1")
	require.NoError(t, err)
	_, err = h.run(t, "store", "get", "wave1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.run(t, "store", "rm", "wave1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConfigFile(t *testing.T) {
	h := newHarness(t)
	planPath := h.write(t, "frame.hcl", validPlan)
	cfgPath := h.write(t, "quotaframe.yaml", "codec:\n  suppress_targets: true\n")

	out, err := h.run(t, "--config", cfgPath, "build", planPath)
	require.NoError(t, err)
	assert.NotContains(t, out, `"target"`)
}

func TestInvalidLogLevel(t *testing.T) {
	h := newHarness(t)
	planPath := h.write(t, "frame.hcl", validPlan)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--db", h.db, "--log-level", "loud", "validate", planPath})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func newTestApp() *app {
	return &app{cfg: config.Default(), logger: zap.NewNop()}
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestMCPValidate(t *testing.T) {
	a := newTestApp()
	require.NotNil(t, a.newMCPServer())

	text, isErr := callTool(t, a.handleValidate, map[string]any{"plan": validPlan})
	assert.False(t, isErr)
	assert.Contains(t, text, `"isValid": true`)

	text, isErr = callTool(t, a.handleValidate, map[string]any{"plan": invalidPlan})
	assert.False(t, isErr)
	assert.Contains(t, text, `"isValid": false`)

	_, isErr = callTool(t, a.handleValidate, map[string]any{})
	assert.True(t, isErr)

	_, isErr = callTool(t, a.handleValidate, map[string]any{"frame": "{not json"})
	assert.True(t, isErr)
}

func TestMCPBuildAndQuery(t *testing.T) {
	a := newTestApp()

	doc, isErr := callTool(t, a.handleBuild, map[string]any{"plan": validPlan})
	require.False(t, isErr, doc)

	text, isErr := callTool(t, a.handleValidate, map[string]any{"frame": doc})
	assert.False(t, isErr)
	assert.Contains(t, text, `"isValid": true`)

	text, isErr = callTool(t, a.handleQuery, map[string]any{"frame": doc, "path": "$.variables[*].name"})
	assert.False(t, isErr)
	assert.Equal(t, `["Gender"]`, text)

	text, isErr = callTool(t, a.handleQuery, map[string]any{"frame": doc, "path": "$.nothing"})
	assert.False(t, isErr)
	assert.Equal(t, `[]`, text)

	_, isErr = callTool(t, a.handleBuild, map[string]any{"plan": `variable "X" {`})
	assert.True(t, isErr)

	_, isErr = callTool(t, a.handleQuery, map[string]any{"frame": doc})
	assert.True(t, isErr)
}
