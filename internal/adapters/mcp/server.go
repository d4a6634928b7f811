package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/ports"
	"github.com/kirillkom/docshelf/internal/core/usecase"
)

// ViewerFactory returns the PDF viewer for a client platform; "" means the
// configured default.
type ViewerFactory func(platform string) ports.PDFViewer

type Tools struct {
	registry ports.FileRegistry
	search   *usecase.SearchView
	viewers  ViewerFactory
	logger   *slog.Logger
}

func NewTools(registry ports.FileRegistry, viewers ViewerFactory, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		registry: registry,
		search:   usecase.NewSearchView(registry),
		viewers:  viewers,
		logger:   logger,
	}
}

// NewServer registers the file tools on a new MCP server.
func NewServer(tools *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer("docshelf", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("Refresh and list every uploaded PDF and video."),
		mcp.WithReadOnlyHintAnnotation(true),
	), tools.instrument("list_files", tools.ListFiles))

	s.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Search uploaded files by name and extracted content. A blank query lists every file."),
		mcp.WithString("query", mcp.Description("Text to search for.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), tools.instrument("search_files", tools.SearchFiles))

	s.AddTool(mcp.NewTool("get_file",
		mcp.WithDescription("Fetch one file record by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("File id.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), tools.instrument("get_file", tools.GetFile))

	s.AddTool(mcp.NewTool("view_file",
		mcp.WithDescription("Resolve the URL an embedded viewer loads for a PDF."),
		mcp.WithString("id", mcp.Required(), mcp.Description("File id of a PDF.")),
		mcp.WithString("platform", mcp.Description("Client platform, e.g. android or ios.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), tools.instrument("view_file", tools.ViewFile))

	s.AddTool(mcp.NewTool("delete_file",
		mcp.WithDescription("Delete a file from the service."),
		mcp.WithString("id", mcp.Required(), mcp.Description("File id.")),
		mcp.WithDestructiveHintAnnotation(true),
	), tools.instrument("delete_file", tools.DeleteFile))

	return s
}

func (t *Tools) ListFiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := t.registry.FetchFiles(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(summarize(files, ""))
}

func (t *Tools) SearchFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	files, err := t.search.Search(ctx, query)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(summarize(files, query))
}

func (t *Tools) GetFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	file, err := t.registry.GetFileByID(ctx, domain.FileID(id))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(file)
}

func (t *Tools) ViewFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source, err := t.viewers(req.GetString("platform", "")).OpenPDF(ctx, domain.FileID(id))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(source)
}

func (t *Tools) DeleteFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.registry.DeleteFile(ctx, domain.FileID(id)); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("deleted " + id), nil
}

func (t *Tools) instrument(name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, req)

		attrs := []any{
			"tool", name,
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
		}
		switch {
		case err != nil:
			t.logger.Error("mcp_tool_call", append(attrs, "error", err)...)
		case result != nil && result.IsError:
			t.logger.Warn("mcp_tool_call", append(attrs, "status", "error")...)
		default:
			t.logger.Info("mcp_tool_call", append(attrs, "status", "ok")...)
		}
		return result, err
	}
}

type fileSummary struct {
	ID           domain.FileID   `json:"id"`
	Title        string          `json:"title"`
	OriginalName string          `json:"originalname"`
	Filename     string          `json:"filename,omitempty"`
	FileType     domain.FileType `json:"fileType"`
	Size         string          `json:"size"`
	UploadDate   string          `json:"uploadDate,omitempty"`
	Snippet      string          `json:"snippet,omitempty"`
}

// summarize drops extracted text, which can be very large, and keeps a
// snippet around the query instead.
func summarize(files []domain.UploadedFile, query string) []fileSummary {
	out := make([]fileSummary, 0, len(files))
	for _, f := range files {
		s := fileSummary{
			ID:           f.ID,
			Title:        f.DisplayName(),
			OriginalName: f.OriginalName,
			Filename:     f.Filename,
			FileType:     f.FileType,
			Size:         usecase.FormatFileSize(f.Size),
			Snippet:      f.Snippet,
		}
		if !f.UploadDate.IsZero() {
			s.UploadDate = f.UploadDate.UTC().Format(time.RFC3339)
		}
		if s.Snippet == "" && query != "" {
			s.Snippet = usecase.Snippet(f, query)
		}
		out = append(out, s)
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(domain.Message(err))
}
