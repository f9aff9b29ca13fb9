package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandListClients     CommandType = "LIST_CLIENTS"
	CommandListWindows     CommandType = "LIST_WINDOWS"
	CommandAddClient       CommandType = "ADD_CLIENT"
	CommandRemoveClient    CommandType = "REMOVE_CLIENT"
	CommandMoveClient      CommandType = "MOVE_CLIENT"
	CommandExpand          CommandType = "EXPAND"
	CommandSetFPS          CommandType = "SET_FPS"
	CommandSetColumns      CommandType = "SET_COLUMNS"
	CommandSetAutoMinimize CommandType = "SET_AUTO_MINIMIZE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool  `json:"daemon_running"`
	ClientCount   int   `json:"client_count"`
	FPS           int   `json:"fps"`
	Columns       int   `json:"columns"`
	AutoMinimize  bool  `json:"auto_minimize"`
	MovieMode     bool  `json:"movie_mode"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// ClientInfo describes one monitored window on the board.
type ClientInfo struct {
	Handle           uint32  `json:"handle"`
	Title            string  `json:"title"`
	Position         int     `json:"position"`
	Row              int     `json:"row"`
	Col              int     `json:"col"`
	Minimized        bool    `json:"minimized"`
	CPUPercent       float64 `json:"cpu_percent"`
	LastUpdateUnixMs int64   `json:"last_update_unix_ms"`
}

// ClientsData represents the data returned by LIST_CLIENTS
type ClientsData struct {
	Clients []ClientInfo `json:"clients"`
}

// WindowEntry describes one capturable top-level window.
type WindowEntry struct {
	Handle uint32 `json:"handle"`
	Title  string `json:"title"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowEntry `json:"windows"`
}

// AddClientPayload represents the payload for ADD_CLIENT
type AddClientPayload struct {
	Handle uint32 `json:"handle"`
	Title  string `json:"title,omitempty"`
}

// WindowPayload addresses a single board client by handle.
type WindowPayload struct {
	Handle uint32 `json:"handle"`
}

// MovePayload represents the payload for MOVE_CLIENT
type MovePayload struct {
	Handle uint32 `json:"handle"`
	Delta  int    `json:"delta"`
}

// SetIntPayload carries a single integer setting value.
type SetIntPayload struct {
	Value int `json:"value"`
}

// SetBoolPayload carries a single boolean setting value.
type SetBoolPayload struct {
	Value bool `json:"value"`
}

// Board is the command surface the IPC server exposes. The daemon
// implements it.
type Board interface {
	Status() StatusData
	ListClients() []ClientInfo
	ListWindows() ([]WindowEntry, error)
	AddClient(handle uint32, title string) error
	RemoveClient(handle uint32) error
	MoveClient(handle uint32, delta int) error
	Expand(handle uint32) error
	SetFPS(fps int) error
	SetColumns(columns int) error
	SetAutoMinimize(on bool) error
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
