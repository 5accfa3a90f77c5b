// Package mcpserver exposes validation and rendering as MCP tools so that
// coding agents can check and generate agent documents themselves.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/render"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/validation"
)

const (
	ValidateToolName = "validate_spec"
	RenderToolName   = "render_spec"
)

// Server holds the validators and renderer the tools delegate to.
type Server struct {
	suite    *validation.Suite
	renderer *render.Renderer
	discover spec.DiscoverOptions
}

// New returns a Server. discover controls which files a directory argument
// expands to.
func New(suite *validation.Suite, renderer *render.Renderer, discover spec.DiscoverOptions) *Server {
	return &Server{suite: suite, renderer: renderer, discover: discover}
}

// MCPServer builds the MCP server with both tools registered.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"claude-code-agents",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	srv.AddTool(validateTool(), s.HandleValidate)
	srv.AddTool(renderTool(), s.HandleRender)
	return srv
}

// ServeStdio serves the tools over stdin and stdout until the input closes.
func (s *Server) ServeStdio(version string) error {
	return server.ServeStdio(s.MCPServer(version))
}

func validateTool() mcp.Tool {
	return mcp.NewTool(ValidateToolName,
		mcp.WithDescription("Validate agent and recipe documents against their schemas and semantic rules. Returns a JSON report."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File or directory to validate"),
		),
	)
}

func renderTool() mcp.Tool {
	targets := make([]string, 0, len(render.Targets()))
	for _, t := range render.Targets() {
		targets = append(targets, string(t))
	}

	return mcp.NewTool(RenderToolName,
		mcp.WithDescription("Render agent documents for a runtime target. Returns the generated files, or the written paths when output_dir is set."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File or directory to render"),
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Runtime target"),
			mcp.Enum(targets...),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory to write the generated files into"),
		),
	)
}

// HandleValidate runs the validate_spec tool.
func (s *Server) HandleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path := stringArg(args, "path")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	paths, err := spec.Discover([]string{path}, s.discover)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := s.suite.ValidatePaths(ctx, paths)
	logger.G(ctx).WithField("path", path).
		WithField("invalid", report.Invalid).
		Info("validate_spec called")

	return jsonResult(report)
}

type renderedFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type renderResponse struct {
	Files   []renderedFile `json:"files,omitempty"`
	Written []string       `json:"written,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

// HandleRender runs the render_spec tool.
func (s *Server) HandleRender(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path := stringArg(args, "path")
	target := render.Target(stringArg(args, "target"))
	outDir := stringArg(args, "output_dir")
	if path == "" || target == "" {
		return mcp.NewToolResultError("path and target are required"), nil
	}

	paths, err := spec.Discover([]string{path}, s.discover)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var resp renderResponse
	if outDir != "" {
		res, err := s.renderer.RenderFiles(ctx, paths, target, outDir)
		if res == nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resp.Written = res.Written
		resp.Errors = errorLines(err)
	} else {
		outputs, err := s.renderer.RenderPaths(ctx, paths, target)
		if errors.Is(err, render.ErrUnknownTarget) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		for _, o := range outputs {
			resp.Files = append(resp.Files, renderedFile{Name: o.Name, Content: string(o.Content)})
		}
		resp.Errors = errorLines(err)
	}

	logger.G(ctx).WithField("path", path).
		WithField("target", target).
		Info("render_spec called")

	result, err := jsonResult(resp)
	if err != nil {
		return nil, err
	}
	result.IsError = len(resp.Errors) > 0
	return result, nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func errorLines(err error) []string {
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode tool result")
	}
	return mcp.NewToolResultText(string(data)), nil
}
