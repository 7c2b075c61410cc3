package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/igdb-mcp-server/internal/igdb"
	"github.com/olgasafonova/igdb-mcp-server/metrics"
	"github.com/olgasafonova/igdb-mcp-server/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their concrete handler implementations.
type HandlerRegistry struct {
	client *igdb.Client
	logger *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(client *igdb.Client, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		client: client,
		logger: logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	registered := 0
	for _, spec := range AllTools {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.logger.Info("Registered all tools", "count", registered)
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)

	switch spec.Method {
	case "SearchGames":
		register(h, server, tool, spec, h.client.SearchGamesMCP)
	case "GetGameDetails":
		register(h, server, tool, spec, h.client.GetGameDetailsMCP)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	} else {
		annotations.DestructiveHint = ptr(false)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Title:       spec.Title,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// textResult is a tool result that can render itself for display
type textResult interface {
	Text() string
}

// toolError is returned to the SDK, which turns it into an error result
// whose text is the Error() string.
type toolError struct {
	err error
}

func (e *toolError) Error() string {
	return "Error: " + e.err.Error()
}

func (e *toolError) Unwrap() error {
	return e.err
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the client method with panic recovery, metrics, tracing, and logging.
func register[Args any, Result textResult](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (res *mcp.CallToolResult, out Result, err error) {
		invocationID := uuid.NewString()
		defer h.recoverPanic(spec.Name, invocationID, &err)

		// Start trace span
		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(
			attribute.String("mcp.tool.invocation_id", invocationID),
			attribute.String("mcp.tool.resource", spec.Resource),
			attribute.Bool("mcp.tool.readonly", spec.ReadOnly),
		)

		// Track in-flight requests
		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		result, callErr := method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if callErr != nil {
			tracing.Fail(span, callErr)
			metrics.RecordRequest(spec.Name, duration, false)
			h.logger.Warn("Tool failed",
				"tool", spec.Name,
				"invocation_id", invocationID,
				"duration_seconds", duration,
				"error", callErr)
			var zero Result
			return nil, zero, &toolError{err: callErr}
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(spec.Name, duration, true)
		h.logExecution(spec, invocationID, duration, args, result)

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result.Text()}},
		}, result, nil
	})
}

// recoverPanic recovers from panics in tool handlers and reports them
// to the caller as an error result.
func (h *HandlerRegistry) recoverPanic(toolName, invocationID string, errp *error) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"invocation_id", invocationID,
			"panic", rec,
			"stack", string(debug.Stack()))
		*errp = &toolError{err: fmt.Errorf("internal error in %s: %v", toolName, rec)}
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, invocationID string, duration float64, args, result any) {
	attrs := []any{
		"tool", spec.Name,
		"invocation_id", invocationID,
		"duration_seconds", duration,
	}

	// Add extractable fields from args using type assertions
	switch a := args.(type) {
	case igdb.SearchGamesArgs:
		attrs = append(attrs, "query", a.Query, "limit", igdb.NormalizeLimit(a.Limit))
	case igdb.GetGameDetailsArgs:
		attrs = append(attrs, "game_id", a.GameID)
	}

	// Add extractable fields from result
	switch r := result.(type) {
	case igdb.SearchGamesResult:
		attrs = append(attrs, "results_count", r.Count)
	case igdb.GetGameDetailsResult:
		attrs = append(attrs, "found", r.Found)
	}

	h.logger.Info("Tool executed", attrs...)
}
