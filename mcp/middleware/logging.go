package middleware

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"consultai/utils/log"
)

// LoggingMiddleware logs the name, arguments, outcome and latency of every
// tool call.
func LoggingMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		log.Info(ctx, "tool call", zap.String("tool", request.Params.Name), zap.Any("arguments", request.Params.Arguments))

		result, err := next(ctx, request)

		fields := []zap.Field{
			zap.String("tool", request.Params.Name),
			zap.Duration("elapsed", time.Since(start)),
		}
		switch {
		case err != nil:
			log.Error(ctx, "tool call failed", append(fields, zap.Error(err))...)
		case result != nil && result.IsError:
			log.Warn(ctx, "tool call returned error", fields...)
		default:
			log.Info(ctx, "tool call done", fields...)
		}
		return result, err
	}
}
