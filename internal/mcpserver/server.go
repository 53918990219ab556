// Package mcpserver exposes the converters as MCP tools over stdio.
package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"eipconvert/internal/convert"
	"eipconvert/internal/textio"
	"eipconvert/internal/version"
)

const serverName = "eip-convert"

// Server is the MCP front end of a Converter.
type Server struct {
	conv *convert.Converter
	log  *zap.Logger
	mcp  *server.MCPServer
}

// New registers the conversion tools on a fresh MCP server.
func New(conv *convert.Converter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		conv: conv,
		log:  log.Named("mcp"),
		mcp: server.NewMCPServer(
			serverName,
			version.Version,
			server.WithLogging(),
			server.WithRecovery(),
		),
	}

	s.mcp.AddTool(mcp.NewTool("convert",
		mcp.WithDescription("Convert the three Entropy/IP analysis outputs into generator input: entropy words and segments, convert directives, then the CPD block."),
		mcp.WithString("segments_path", mcp.Description("Path to the segmentation report."), mcp.Required()),
		mcp.WithString("analysis_path", mcp.Description("Path to the segment mining report."), mcp.Required()),
		mcp.WithString("cpd_path", mcp.Description("Path to the Bayesian network model (Python literal)."), mcp.Required()),
	), s.handleConvert)

	s.mcp.AddTool(stageTool("rewrite_segments", "Rewrite a segmentation report into entropy words and segment lines."),
		s.stageHandler("rewrite_segments", s.conv.Segments))
	s.mcp.AddTool(stageTool("rewrite_analysis", "Rewrite a segment mining report into convert directives."),
		s.stageHandler("rewrite_analysis", s.conv.Analysis))
	s.mcp.AddTool(stageTool("rewrite_cpd", "Rewrite a Bayesian network model into the JSON-like CPD block."),
		s.stageHandler("rewrite_cpd", s.conv.CPD))
	return s
}

func stageTool(name, desc string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(desc),
		mcp.WithString("path", mcp.Description("Path to the input file; gzip is detected automatically."), mcp.Required()),
	)
}

// Serve answers requests on stdin/stdout until ctx is done or stdin closes.
func (s *Server) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.log))
	s.log.Info("serving MCP over stdio", zap.String("version", version.Version))
	return stdio.Listen(ctx, stdin, stdout)
}

// pathArg fetches a required file argument. Stdin carries the protocol, so
// "-" is refused.
func pathArg(req mcp.CallToolRequest, key string) (string, error) {
	p, ok := req.Params.Arguments[key].(string)
	if !ok || p == "" {
		return "", fmt.Errorf("missing or invalid required argument: %s (string)", key)
	}
	if p == textio.Stdin {
		return "", fmt.Errorf("argument %s: stdin is not available to MCP tools", key)
	}
	return p, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

// errorResult reports a conversion failure to the client as tool output
// rather than as a protocol error.
func errorResult(err error) *mcp.CallToolResult {
	res := textResult(err.Error())
	res.IsError = true
	return res
}

func (s *Server) handleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in convert.Inputs
	var err error
	if in.Segments, err = pathArg(req, "segments_path"); err != nil {
		return nil, err
	}
	if in.Analysis, err = pathArg(req, "analysis_path"); err != nil {
		return nil, err
	}
	if in.CPD, err = pathArg(req, "cpd_path"); err != nil {
		return nil, err
	}

	s.log.Debug("tool call", zap.String("tool", "convert"),
		zap.String("segments", in.Segments), zap.String("analysis", in.Analysis), zap.String("cpd", in.CPD))
	var buf bytes.Buffer
	if err := s.conv.Run(ctx, in, &buf); err != nil {
		s.log.Warn("conversion failed", zap.String("tool", "convert"), zap.Error(err))
		return errorResult(err), nil
	}
	return textResult(buf.String()), nil
}

type stageFunc func(ctx context.Context, path string, w io.Writer) error

func (s *Server) stageHandler(tool string, run stageFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := pathArg(req, "path")
		if err != nil {
			return nil, err
		}
		s.log.Debug("tool call", zap.String("tool", tool), zap.String("path", path))
		var buf bytes.Buffer
		if err := run(ctx, path, &buf); err != nil {
			s.log.Warn("conversion failed", zap.String("tool", tool), zap.Error(err))
			return errorResult(err), nil
		}
		return textResult(buf.String()), nil
	}
}
