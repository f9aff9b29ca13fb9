//go:build linux

package platform

import (
	"fmt"
	"image"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/pipboard/internal/x11"
)

// LinuxBackend wraps an X11 connection behind the WindowSystem interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ WindowSystem = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh
// X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// ListWindows enumerates normal, visible top-level windows.
func (b *LinuxBackend) ListWindows() ([]WindowInfo, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := ewmh.ClientListGet(conn.XUtil)
	if err != nil {
		return nil, fmt.Errorf("client list: %w", err)
	}

	windows := make([]WindowInfo, 0, len(clients))
	for _, windowID := range clients {
		if !conn.IsNormalWindow(windowID) {
			continue
		}
		title := conn.WindowTitle(windowID)
		if title == "" {
			continue
		}
		windows = append(windows, WindowInfo{
			ID:    WindowID(windowID),
			Title: title,
		})
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})

	return windows, nil
}

// IsValid reports whether the window still exists on the server.
func (b *LinuxBackend) IsValid(id WindowID) bool {
	if b == nil || b.conn == nil {
		return false
	}
	return b.conn.WindowExists(xproto.Window(id))
}

// IsMinimized reports whether the window is iconified.
func (b *LinuxBackend) IsMinimized(id WindowID) (bool, error) {
	conn, err := b.connection()
	if err != nil {
		return false, err
	}
	return conn.IsIconified(xproto.Window(id))
}

// WindowBounds returns the window geometry in root coordinates, including
// window-manager decorations.
func (b *LinuxBackend) WindowBounds(id WindowID) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}

	r, err := conn.FrameGeometry(xproto.Window(id))
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}, nil
}

// ClientBounds returns the undecorated client-area geometry.
func (b *LinuxBackend) ClientBounds(id WindowID) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}

	r, err := conn.ClientGeometry(xproto.Window(id))
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}, nil
}

// Capture grabs the window content and scales it to thumbnail size.
func (b *LinuxBackend) Capture(id WindowID, width, height int) (image.Image, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	return conn.CaptureWindow(xproto.Window(id), width, height)
}

// Restore de-iconifies a window by mapping it.
func (b *LinuxBackend) Restore(id WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.Deiconify(xproto.Window(id))
}

// Raise asks the window manager to activate the window.
func (b *LinuxBackend) Raise(id WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return ewmh.ActiveWindowReq(conn.XUtil, xproto.Window(id))
}

// Minimize iconifies a window via WM_CHANGE_STATE.
func (b *LinuxBackend) Minimize(id WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.Iconify(xproto.Window(id))
}

// ActiveWindow returns the currently focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// OwningProcess resolves the window's owning process via _NET_WM_PID.
func (b *LinuxBackend) OwningProcess(id WindowID) (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	pid, err := ewmh.WmPidGet(conn.XUtil, xproto.Window(id))
	if err != nil {
		return 0, fmt.Errorf("window %d has no _NET_WM_PID: %w", id, err)
	}
	return int(pid), nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
