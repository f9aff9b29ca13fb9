package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/pipboard/internal/ipc"
)

const (
	ServerName    = "pipboard"
	ServerVersion = "0.1.0"
)

// Server is the MCP server exposing board control. Tool calls are
// relayed to the running daemon over IPC, so the MCP process stays a
// thin client.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates a new MCP server backed by the daemon's IPC
// socket.
func NewServer() *Server {
	s := &Server{
		client: ipc.NewClient(),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "board_status",
		Description: "Get the board daemon status: monitored window count, capture frame rate, grid columns, auto-minimize state and uptime.",
	}, s.handleBoardStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List capturable top-level windows on the desktop with their handles and titles. Use the handle to add a window to the board.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_clients",
		Description: "List the windows currently monitored on the board with their positions, minimized state, CPU usage and last thumbnail update time.",
	}, s.handleListClients)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_client",
		Description: "Add a window to the board by handle. The daemon starts capturing thumbnails and monitoring state for it.",
	}, s.handleAddClient)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "remove_client",
		Description: "Remove a window from the board by handle. Removing a window that already left the board is not an error.",
	}, s.handleRemoveClient)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "expand_client",
		Description: "Bring a monitored window to the foreground. With auto-minimize enabled the window is minimized again once focus moves elsewhere.",
	}, s.handleExpandClient)
}
