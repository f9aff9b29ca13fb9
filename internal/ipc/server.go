package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/1broseidon/pipboard/internal/runtimepath"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	board        Board
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(board Board, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		board:      board,
		logger:     logger,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Error("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Error("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Error("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListClients:
		return s.handleListClients()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandAddClient:
		return s.handleAddClient(req.Payload)
	case CommandRemoveClient:
		return s.handleRemoveClient(req.Payload)
	case CommandMoveClient:
		return s.handleMoveClient(req.Payload)
	case CommandExpand:
		return s.handleExpand(req.Payload)
	case CommandSetFPS:
		return s.handleSetFPS(req.Payload)
	case CommandSetColumns:
		return s.handleSetColumns(req.Payload)
	case CommandSetAutoMinimize:
		return s.handleSetAutoMinimize(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	resp, _ := NewOKResponse(s.board.Status())
	return resp
}

func (s *Server) handleListClients() *Response {
	resp, _ := NewOKResponse(ClientsData{Clients: s.board.ListClients()})
	return resp
}

func (s *Server) handleListWindows() *Response {
	windows, err := s.board.ListWindows()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list windows: %v", err))
	}
	resp, _ := NewOKResponse(WindowsData{Windows: windows})
	return resp
}

func (s *Server) handleAddClient(payload json.RawMessage) *Response {
	var req AddClientPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid add payload: %v", err))
	}
	if req.Handle == 0 {
		return NewErrorResponse("handle is required")
	}

	if err := s.board.AddClient(req.Handle, req.Title); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to add client: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleRemoveClient(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid remove payload: %v", err))
	}
	if req.Handle == 0 {
		return NewErrorResponse("handle is required")
	}

	if err := s.board.RemoveClient(req.Handle); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to remove client: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleMoveClient(payload json.RawMessage) *Response {
	var req MovePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	if req.Handle == 0 {
		return NewErrorResponse("handle is required")
	}

	if err := s.board.MoveClient(req.Handle, req.Delta); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to move client: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleExpand(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid expand payload: %v", err))
	}
	if req.Handle == 0 {
		return NewErrorResponse("handle is required")
	}

	if err := s.board.Expand(req.Handle); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to expand: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetFPS(payload json.RawMessage) *Response {
	var req SetIntPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid fps payload: %v", err))
	}

	if err := s.board.SetFPS(req.Value); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set fps: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetColumns(payload json.RawMessage) *Response {
	var req SetIntPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid columns payload: %v", err))
	}

	if err := s.board.SetColumns(req.Value); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set columns: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetAutoMinimize(payload json.RawMessage) *Response {
	var req SetBoolPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid auto-minimize payload: %v", err))
	}

	if err := s.board.SetAutoMinimize(req.Value); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set auto-minimize: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
