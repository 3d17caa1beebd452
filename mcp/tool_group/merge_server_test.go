package tool_group

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func TestAddToolGroup(t *testing.T) {
	ms := NewMCPServer("test", "0.0.1")

	var g ToolGroup
	g.Name = "demo"
	g.AddToolItem(mcp.NewTool("ping", mcp.WithDescription("reply pong")), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("pong"), nil
	})
	g.AddToolItem(mcp.NewTool("echo"), func(_ context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(r.Params.Name), nil
	})
	ms.AddToolGroup(g)

	assert.Equal(t, []string{"ping", "echo"}, ms.ToolNames())
	assert.NotNil(t, ms.Server())
}
