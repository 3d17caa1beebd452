package tool_group

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"consultai/mcp/middleware"
	"consultai/utils/log"
)

const (
	DefaultSSEEndpoint     = "/sse"
	DefaultMessageEndpoint = "/message"
)

type MCPServer struct {
	ToolGroups []ToolGroup
	Name       string
	Version    string
	server     *server.MCPServer
}

func NewMCPServer(name, version string, options ...server.ServerOption) *MCPServer {
	ms := &MCPServer{
		Name:    name,
		Version: version,
	}

	// logging middleware and the default capabilities
	options = append(options,
		server.WithToolHandlerMiddleware(middleware.LoggingMiddleware),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithToolCapabilities(true),
	)

	ms.server = server.NewMCPServer(name, version, options...)
	return ms
}

// AddToolGroup registers every tool of the group.
func (ms *MCPServer) AddToolGroup(group ToolGroup) {
	ms.ToolGroups = append(ms.ToolGroups, group)

	for _, item := range group.Items {
		ms.server.AddTool(item.Tool, item.Handler)
	}
}

// ToolNames lists the registered tools in registration order.
func (ms *MCPServer) ToolNames() []string {
	var names []string
	for _, g := range ms.ToolGroups {
		for _, item := range g.Items {
			names = append(names, item.Tool.Name)
		}
	}
	return names
}

func (ms *MCPServer) Server() *server.MCPServer {
	return ms.server
}

// Run serves over SSE until ctx is cancelled or the process gets SIGINT or
// SIGTERM.
func (ms *MCPServer) Run(ctx context.Context, baseURL, addr, sseEndpoint, messageEndpoint string) error {
	if sseEndpoint == "" {
		sseEndpoint = DefaultSSEEndpoint
	}
	if messageEndpoint == "" {
		messageEndpoint = DefaultMessageEndpoint
	}
	sseServer := server.NewSSEServer(ms.server,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint(sseEndpoint),
		server.WithMessageEndpoint(messageEndpoint),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sseServer.Start(addr)
	}()
	log.Info(ctx, "mcp server started",
		zap.String("name", ms.Name),
		zap.String("sse", baseURL+sseEndpoint),
		zap.Strings("tools", ms.ToolNames()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info(shutdownCtx, "mcp server stopped", zap.String("name", ms.Name))
	return nil
}

// ToolGroup is a named set of tools registered together.
type ToolGroup struct {
	Name  string
	Items []MCPToolItem
}

func (tg *ToolGroup) AddToolItem(tool mcp.Tool, handler server.ToolHandlerFunc) {
	tg.Items = append(tg.Items, MCPToolItem{
		Tool:    tool,
		Handler: handler,
	})
}

type MCPToolItem struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}
