package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/pipboard/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// ListClients retrieves the monitored windows on the board
func (c *Client) ListClients() (*ClientsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListClients})
	if err != nil {
		return nil, err
	}

	var data ClientsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse clients data: %w", err)
	}

	return &data, nil
}

// ListWindows retrieves capturable top-level windows
func (c *Client) ListWindows() (*WindowsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListWindows})
	if err != nil {
		return nil, err
	}

	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}

	return &data, nil
}

// AddClient puts a window on the board
func (c *Client) AddClient(handle uint32, title string) error {
	payload, err := json.Marshal(AddClientPayload{Handle: handle, Title: title})
	if err != nil {
		return fmt.Errorf("failed to marshal add payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandAddClient, Payload: payload})
	return err
}

// RemoveClient takes a window off the board
func (c *Client) RemoveClient(handle uint32) error {
	payload, err := json.Marshal(WindowPayload{Handle: handle})
	if err != nil {
		return fmt.Errorf("failed to marshal remove payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandRemoveClient, Payload: payload})
	return err
}

// MoveClient shifts a window by delta board slots
func (c *Client) MoveClient(handle uint32, delta int) error {
	payload, err := json.Marshal(MovePayload{Handle: handle, Delta: delta})
	if err != nil {
		return fmt.Errorf("failed to marshal move payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandMoveClient, Payload: payload})
	return err
}

// Expand brings a monitored window to the foreground
func (c *Client) Expand(handle uint32) error {
	payload, err := json.Marshal(WindowPayload{Handle: handle})
	if err != nil {
		return fmt.Errorf("failed to marshal expand payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandExpand, Payload: payload})
	return err
}

// SetFPS changes the capture frame rate
func (c *Client) SetFPS(fps int) error {
	payload, err := json.Marshal(SetIntPayload{Value: fps})
	if err != nil {
		return fmt.Errorf("failed to marshal fps payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandSetFPS, Payload: payload})
	return err
}

// SetColumns changes the board grid width
func (c *Client) SetColumns(columns int) error {
	payload, err := json.Marshal(SetIntPayload{Value: columns})
	if err != nil {
		return fmt.Errorf("failed to marshal columns payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandSetColumns, Payload: payload})
	return err
}

// SetAutoMinimize toggles automatic minimize of expanded windows
func (c *Client) SetAutoMinimize(on bool) error {
	payload, err := json.Marshal(SetBoolPayload{Value: on})
	if err != nil {
		return fmt.Errorf("failed to marshal auto-minimize payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandSetAutoMinimize, Payload: payload})
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
