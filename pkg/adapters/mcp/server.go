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

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/validator"
	"github.com/aretw0/espalier/pkg/codec"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const profilesURI = "espalier://profiles"

// Service defines the resolver operations the MCP server exposes.
type Service interface {
	Profiles(ctx context.Context) ([]string, error)
	Resolve(ctx context.Context, profileID string) (*espalier.Outcome, error)
	Validate(ctx context.Context, profileID string) error
}

// ValidationReport is the structured result of validate_profile.
type ValidationReport struct {
	Profile string   `json:"profile"`
	Valid   bool     `json:"valid"`
	Issues  []string `json:"issues,omitempty"`
}

// Server wraps a resolver and exposes it as an MCP Server.
type Server struct {
	svc       Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service) *Server {
	s := &Server{
		svc:       svc,
		mcpServer: server.NewMCPServer("espalier-mcp", strings.TrimSpace(espalier.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

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
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutting down MCP server")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_profiles",
		mcp.WithDescription("List the IDs of every profile in the repository."),
	), s.handleListProfiles)

	s.mcpServer.AddTool(mcp.NewTool("resolve_profile",
		mcp.WithDescription("Resolve a profile into a catalog holding only the selected, merged and modified controls."),
		mcp.WithString("profile_id", mcp.Required(), mcp.Description("ID of the profile to resolve")),
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("json", "yaml")),
	), s.handleResolve)

	s.mcpServer.AddTool(mcp.NewTool("validate_profile",
		mcp.WithDescription("Check a profile's imports and its resolved catalog for cycles, duplicates and missing parameters."),
		mcp.WithString("profile_id", mcp.Required(), mcp.Description("ID of the profile to validate")),
	), s.handleValidate)
}

func (s *Server) handleListProfiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.svc.Profiles(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profileID, err := request.RequireString("profile_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := codec.ParseFormat(request.GetString("format", "json"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := s.svc.Resolve(ctx, profileID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
	}
	data, err := codec.EncodeCatalog(out.Catalog, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profileID, err := request.RequireString("profile_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := ValidationReport{Profile: profileID, Valid: true}
	if err := s.svc.Validate(ctx, profileID); err != nil {
		report.Valid = false
		var agg *validator.AggregateError
		if errors.As(err, &agg) {
			for _, e := range agg.Errors {
				report.Issues = append(report.Issues, e.Error())
			}
		} else {
			report.Issues = []string{err.Error()}
		}
	}
	jsonBytes, _ := json.Marshal(report)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(profilesURI, "Profiles",
		mcp.WithResourceDescription("IDs of the profiles available for resolution"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.svc.Profiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      profilesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
