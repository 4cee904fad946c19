package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/session"
)

// sessionsURI lists the stored sessions.
const sessionsURI = "arbor://sessions"

// RenderResponse is the structured result of render_document.
type RenderResponse struct {
	SessionID string                 `json:"session_id" jsonschema_description:"The rendered session"`
	Revision  uint64                 `json:"revision" jsonschema_description:"Snapshot revision after the render"`
	HTML      string                 `json:"html" jsonschema_description:"Serialized host tree"`
	Mutations []domain.MutationEvent `json:"mutations" jsonschema_description:"Host primitives the commit applied"`
	Skipped   bool                   `json:"skipped" jsonschema_description:"True when nothing changed"`
	Warning   string                 `json:"warning,omitempty" jsonschema_description:"Set when some host mutations failed"`
}

// Sessions is the part of the session manager the MCP server drives.
type Sessions interface {
	Render(ctx context.Context, sessionID string, document []byte, format dsl.Format) (*session.Result, error)
	Get(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Server exposes sessions as MCP tools.
type Server struct {
	sessions  Sessions
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. A nil logger discards.
func NewServer(sessions Sessions, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		logger:    logger,
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type renderArgs struct {
	SessionID string `json:"session_id"`
	Document  string `json:"document"`
	Format    string `json:"format"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) registerTools() {
	renderTool := mcp.NewTool("render_document",
		mcp.WithDescription("Render a YAML or JSON element document into a session and return the applied mutations."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to render into; created on first use")),
		mcp.WithString("document", mcp.Required(), mcp.Description("Element document, e.g. {type: ul, children: [{type: li, key: a, children: [A]}]}")),
		mcp.WithString("format", mcp.Description("yaml (default) or json"), mcp.Enum("yaml", "json")),
		mcp.WithOutputSchema[RenderResponse](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewStructuredToolHandler(s.handleRender))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the last committed snapshot of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleGet)

	s.mcpServer.AddTool(mcp.NewTool("delete_session",
		mcp.WithDescription("Unmount a session and delete its snapshot."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleDelete)
}

func (s *Server) handleRender(ctx context.Context, _ mcp.CallToolRequest, args renderArgs) (RenderResponse, error) {
	if args.SessionID == "" {
		return RenderResponse{}, errors.New("session_id is required")
	}
	format := dsl.FormatYAML
	if strings.EqualFold(args.Format, string(dsl.FormatJSON)) {
		format = dsl.FormatJSON
	}

	res, err := s.sessions.Render(ctx, args.SessionID, []byte(args.Document), format)
	if err != nil && (res == nil || !errors.Is(err, domain.ErrCommitIncomplete)) {
		s.logger.Warn("MCP Render failed", "session_id", args.SessionID, "err", err)
		return RenderResponse{}, fmt.Errorf("render failed: %w", err)
	}

	resp := RenderResponse{
		SessionID: args.SessionID,
		Revision:  res.Snapshot.Revision,
		HTML:      res.Snapshot.HTML,
		Mutations: res.Mutations,
	}
	if resp.Mutations == nil {
		resp.Mutations = []domain.MutationEvent{}
	}
	if res.Commit != nil {
		resp.Skipped = res.Commit.Skipped
	}
	if err != nil {
		resp.Warning = err.Error()
	}
	return resp, nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	snap, err := s.sessions.Get(ctx, args.SessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(snap)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if err := s.sessions.Delete(ctx, args.SessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return mcp.NewToolResultText("deleted " + args.SessionID), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(sessionsURI, "Stored Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      sessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
