package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region identifies a rectangular area of a frame holding the telemetry
// display of interest.
//
// Coordinates are 0-based with origin at top-left. A zero-value Region
// means "the whole frame".
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the region selects nothing, i.e. the whole frame
// should be used.
func (r Region) Empty() bool {
	return r.Width == 0 && r.Height == 0
}

// Key returns the region's cache-key component, "x_y_width_height".
// Results for different regions of the same frame cache independently.
func (r Region) Key() string {
	return fmt.Sprintf("%d_%d_%d_%d", r.X, r.Y, r.Width, r.Height)
}

// CropRegion extracts a region from an image. The region is intersected
// with the image bounds first, so a region that hangs partially off the
// frame crops to the overlapping part.
//
// Returns an error if the region has non-positive dimensions or lies
// entirely outside the frame.
func CropRegion(img image.Image, r Region) (image.Image, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid region %dx%d: dimensions must be positive", r.Width, r.Height)
	}

	bounds := img.Bounds()
	rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).
		Add(bounds.Min).
		Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("region (%d,%d) %dx%d outside image bounds %dx%d",
			r.X, r.Y, r.Width, r.Height, bounds.Dx(), bounds.Dy())
	}

	return imaging.Crop(img, rect), nil
}
