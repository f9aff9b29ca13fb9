package platform

import "image"

// WindowID is a platform-neutral window identifier. It is opaque to the
// board: stable for the window's lifetime, invalid after the window closes.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// WindowInfo contains metadata for a capturable top-level window.
type WindowInfo struct {
	ID    WindowID
	Title string
}

// WindowSystem abstracts window-system operations across platforms.
//
// Implementations must tolerate windows disappearing between calls: any
// query on a closed window returns an error or a negative answer, never
// panics. Callers treat such answers as authoritative invalidation.
type WindowSystem interface {
	// ListWindows enumerates visible, normal top-level windows.
	ListWindows() ([]WindowInfo, error)

	// IsValid reports whether the window still exists.
	IsValid(id WindowID) bool

	// IsMinimized reports whether the window is iconified.
	IsMinimized(id WindowID) (bool, error)

	// WindowBounds returns the window's outer geometry including
	// decorations; ClientBounds returns the undecorated content area.
	WindowBounds(id WindowID) (Rect, error)
	ClientBounds(id WindowID) (Rect, error)

	// Capture grabs the window's client-area content and scales it to the
	// given thumbnail dimensions.
	Capture(id WindowID, width, height int) (image.Image, error)

	// Restore de-iconifies a window; Raise asks the window manager to
	// focus and stack it on top; Minimize iconifies it.
	Restore(id WindowID) error
	Raise(id WindowID) error
	Minimize(id WindowID) error

	// ActiveWindow returns the currently focused window ID.
	ActiveWindow() (WindowID, error)

	// OwningProcess resolves the process that owns the window.
	OwningProcess(id WindowID) (int, error)

	// Disconnect releases the window-system connection.
	Disconnect()
}
