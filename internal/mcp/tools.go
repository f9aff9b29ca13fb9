package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// BoardStatusInput is the input for the board_status tool.
type BoardStatusInput struct{}

// BoardStatusOutput is the output of the board_status tool.
type BoardStatusOutput struct {
	Running       bool  `json:"running"`
	ClientCount   int   `json:"client_count"`
	FPS           int   `json:"fps"`
	Columns       int   `json:"columns"`
	AutoMinimize  bool  `json:"auto_minimize"`
	MovieMode     bool  `json:"movie_mode"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowSummary describes one capturable window.
type WindowSummary struct {
	Handle uint32 `json:"handle"`
	Title  string `json:"title"`
}

// ListWindowsOutput is the output of the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowSummary `json:"windows"`
}

// ListClientsInput is the input for the list_clients tool.
type ListClientsInput struct{}

// ClientSummary describes one monitored window.
type ClientSummary struct {
	Handle           uint32  `json:"handle"`
	Title            string  `json:"title"`
	Position         int     `json:"position"`
	Minimized        bool    `json:"minimized"`
	CPUPercent       float64 `json:"cpu_percent"`
	LastUpdateUnixMs int64   `json:"last_update_unix_ms"`
}

// ListClientsOutput is the output of the list_clients tool.
type ListClientsOutput struct {
	Clients []ClientSummary `json:"clients"`
}

// AddClientInput is the input for the add_client tool.
type AddClientInput struct {
	Handle uint32 `json:"handle" jsonschema:"required,Window handle from list_windows"`
	Title  string `json:"title,omitempty" jsonschema:"Optional title override; resolved from the window when omitted"`
}

// ClientHandleInput addresses a monitored window by handle.
type ClientHandleInput struct {
	Handle uint32 `json:"handle" jsonschema:"required,Handle of the monitored window"`
}

// AckOutput reports a successful mutation.
type AckOutput struct {
	Handle uint32 `json:"handle"`
}

func (s *Server) handleBoardStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ BoardStatusInput) (*mcpsdk.CallToolResult, BoardStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, BoardStatusOutput{}, err
	}
	return nil, BoardStatusOutput{
		Running:       status.DaemonRunning,
		ClientCount:   status.ClientCount,
		FPS:           status.FPS,
		Columns:       status.Columns,
		AutoMinimize:  status.AutoMinimize,
		MovieMode:     status.MovieMode,
		UptimeSeconds: status.UptimeSeconds,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.client.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{Windows: make([]WindowSummary, len(data.Windows))}
	for i, w := range data.Windows {
		out.Windows[i] = WindowSummary{Handle: w.Handle, Title: w.Title}
	}
	return nil, out, nil
}

func (s *Server) handleListClients(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListClientsInput) (*mcpsdk.CallToolResult, ListClientsOutput, error) {
	data, err := s.client.ListClients()
	if err != nil {
		return nil, ListClientsOutput{}, err
	}
	out := ListClientsOutput{Clients: make([]ClientSummary, len(data.Clients))}
	for i, c := range data.Clients {
		out.Clients[i] = ClientSummary{
			Handle:           c.Handle,
			Title:            c.Title,
			Position:         c.Position,
			Minimized:        c.Minimized,
			CPUPercent:       c.CPUPercent,
			LastUpdateUnixMs: c.LastUpdateUnixMs,
		}
	}
	return nil, out, nil
}

func (s *Server) handleAddClient(_ context.Context, _ *mcpsdk.CallToolRequest, args AddClientInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.AddClient(args.Handle, args.Title); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{Handle: args.Handle}, nil
}

func (s *Server) handleRemoveClient(_ context.Context, _ *mcpsdk.CallToolRequest, args ClientHandleInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.RemoveClient(args.Handle); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{Handle: args.Handle}, nil
}

func (s *Server) handleExpandClient(_ context.Context, _ *mcpsdk.CallToolRequest, args ClientHandleInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.Expand(args.Handle); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{Handle: args.Handle}, nil
}
