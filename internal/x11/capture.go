package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"golang.org/x/image/draw"
)

// CaptureWindow grabs the window's client-area pixels and scales them to
// width x height. Capturing the client window directly excludes
// window-manager decorations.
func (c *Connection) CaptureWindow(windowID xproto.Window, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %dx%d", width, height)
	}

	img, err := xgraphics.NewDrawable(c.XUtil, xproto.Drawable(windowID))
	if err != nil {
		return nil, fmt.Errorf("capture window %d: %w", windowID, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("capture window %d: empty geometry", windowID)
	}

	// Some servers include the border in the drawable; crop it out so
	// the thumbnail only shows content.
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err == nil && geom.BorderWidth > 0 {
		bw := int(geom.BorderWidth)
		inset := image.Rect(bounds.Min.X+bw, bounds.Min.Y+bw, bounds.Max.X-bw, bounds.Max.Y-bw)
		if inset.Dx() > 0 && inset.Dy() > 0 {
			bounds = inset
		}
	}

	thumb := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, bounds, draw.Src, nil)
	return thumb, nil
}
