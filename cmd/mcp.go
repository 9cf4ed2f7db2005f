package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/quotaframe/internal/builder"
	"github.com/agentic-research/quotaframe/internal/codec"
	"github.com/agentic-research/quotaframe/internal/plan"
	"github.com/agentic-research/quotaframe/internal/quota"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0"

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve frame tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("serving mcp on stdio")
			return server.ServeStdio(a.newMCPServer())
		},
	}
}

func (a *app) newMCPServer() *server.MCPServer {
	s := server.NewMCPServer("quotaframe", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("validate_frame",
		mcp.WithDescription("Validate a quota frame given as a JSON frame document or an HCL plan. Returns the validation result as JSON."),
		mcp.WithString("frame", mcp.Description("JSON frame document")),
		mcp.WithString("plan", mcp.Description("HCL plan source, used when frame is empty")),
	), a.handleValidate)

	s.AddTool(mcp.NewTool("build_plan",
		mcp.WithDescription("Build a quota frame from an HCL plan and return it as a JSON frame document."),
		mcp.WithString("plan", mcp.Required(), mcp.Description("HCL plan source")),
	), a.handleBuild)

	s.AddTool(mcp.NewTool("query_frame",
		mcp.WithDescription("Evaluate a JSONPath expression against a JSON frame document."),
		mcp.WithString("frame", mcp.Required(), mcp.Description("JSON frame document")),
		mcp.WithString("path", mcp.Required(), mcp.Description("JSONPath expression, e.g. $.variables[*].name")),
	), a.handleQuery)

	return s
}

// frameArgument decodes the frame or plan argument of a tool call.
func (a *app) frameArgument(req mcp.CallToolRequest) (*quota.Frame, error) {
	if doc := strings.TrimSpace(req.GetString("frame", "")); doc != "" {
		return codec.Unmarshal([]byte(doc), codec.Options{})
	}
	if src := req.GetString("plan", ""); strings.TrimSpace(src) != "" {
		return a.buildPlan(src)
	}
	return nil, errors.New("one of frame or plan is required")
}

func (a *app) buildPlan(src string) (*quota.Frame, error) {
	p, err := plan.Parse("plan.hcl", []byte(src))
	if err != nil {
		return nil, err
	}
	return p.Build(builder.WithLogger(a.logger))
}

func (a *app) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := a.frameArgument(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := a.validator().Validate(f)
	a.logger.Debug("mcp validate", zap.Bool("valid", res.IsValid), zap.Int("errors", len(res.Errors)))

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (a *app) handleBuild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("plan")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := a.buildPlan(src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, f, a.codecOptions()); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (a *app) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("frame")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matches, err := codec.Query([]byte(doc), path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if matches == nil {
		matches = []any{}
	}
	out, err := json.Marshal(matches)
	if err != nil {
		return nil, fmt.Errorf("encode matches: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
