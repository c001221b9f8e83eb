// Package geometry computes the scale + center-crop that reframes a source
// frame to a fixed target size.
package geometry

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrNeedsPadding is returned when the scaled source is narrower than the
// target. Padding is not supported.
var ErrNeedsPadding = errors.New("scaled source is narrower than target width")

// Spec is the reframe transform for one source frame size.
type Spec struct {
	SourceWidth  int
	SourceHeight int
	TargetWidth  int
	TargetHeight int

	ScaleFactor  float64
	ScaledWidth  int
	ScaledHeight int
	CropCenterX  float64
	CropCenterY  float64

	// Top-left corner of the crop window on the scaled frame.
	CropX int
	CropY int
}

// ComputeCrop scales the source so its height equals targetHeight, keeping
// the aspect ratio, then centers a targetWidth x targetHeight window on the
// scaled frame.
func ComputeCrop(sourceWidth, sourceHeight, targetWidth, targetHeight int) (Spec, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return Spec{}, errors.Errorf("invalid source dimensions %dx%d", sourceWidth, sourceHeight)
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return Spec{}, errors.Errorf("invalid target dimensions %dx%d", targetWidth, targetHeight)
	}

	scale := float64(targetHeight) / float64(sourceHeight)
	scaledWidth := int(math.Round(float64(sourceWidth) * scale))
	scaledHeight := targetHeight

	// Ensure dimensions are even
	scaledWidth = scaledWidth - (scaledWidth % 2)

	if scaledWidth < targetWidth {
		return Spec{}, errors.Wrapf(ErrNeedsPadding, "%dx%d scales to %dx%d, target %dx%d",
			sourceWidth, sourceHeight, scaledWidth, scaledHeight, targetWidth, targetHeight)
	}

	centerX := float64(scaledWidth) / 2
	centerY := float64(scaledHeight) / 2

	cropX := clamp(int(math.Round(centerX-float64(targetWidth)/2)), 0, scaledWidth-targetWidth)
	cropY := clamp(int(math.Round(centerY-float64(targetHeight)/2)), 0, scaledHeight-targetHeight)

	return Spec{
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
		TargetWidth:  targetWidth,
		TargetHeight: targetHeight,
		ScaleFactor:  scale,
		ScaledWidth:  scaledWidth,
		ScaledHeight: scaledHeight,
		CropCenterX:  centerX,
		CropCenterY:  centerY,
		CropX:        cropX,
		CropY:        cropY,
	}, nil
}

// Filter returns the ffmpeg video filter chain for the transform.
func (s Spec) Filter() string {
	return fmt.Sprintf("scale=%d:%d,crop=%d:%d:%d:%d,setsar=1",
		s.ScaledWidth, s.ScaledHeight,
		s.TargetWidth, s.TargetHeight,
		s.CropX, s.CropY,
	)
}

// Contained reports whether the crop window lies inside the scaled frame.
func (s Spec) Contained() bool {
	return s.CropX >= 0 && s.CropY >= 0 &&
		s.CropX+s.TargetWidth <= s.ScaledWidth &&
		s.CropY+s.TargetHeight <= s.ScaledHeight
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
