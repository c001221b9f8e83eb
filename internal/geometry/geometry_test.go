package geometry

import (
	"testing"

	"github.com/pkg/errors"
)

func TestComputeCropLandscapeToPortrait(t *testing.T) {
	spec, err := ComputeCrop(1920, 1080, 1080, 1920)
	if err != nil {
		t.Fatalf("ComputeCrop: %v", err)
	}
	if spec.ScaledHeight != 1920 {
		t.Errorf("ScaledHeight = %d, want 1920", spec.ScaledHeight)
	}
	// 1920 * 1920/1080 = 3413.33 -> 3413 -> even 3412
	if spec.ScaledWidth != 3412 {
		t.Errorf("ScaledWidth = %d, want 3412", spec.ScaledWidth)
	}
	if spec.CropX != (3412-1080)/2 || spec.CropY != 0 {
		t.Errorf("crop origin = (%d,%d)", spec.CropX, spec.CropY)
	}
	if want := "scale=3412:1920,crop=1080:1920:1166:0,setsar=1"; spec.Filter() != want {
		t.Errorf("Filter() = %q, want %q", spec.Filter(), want)
	}
}

func TestComputeCropContainment(t *testing.T) {
	sources := [][2]int{
		{1920, 1080}, {1280, 720}, {3840, 2160}, {640, 360}, {1080, 1920},
		{1081, 1921}, {4096, 1716}, {1440, 1080}, {720, 480}, {2000, 1999},
	}
	for _, src := range sources {
		spec, err := ComputeCrop(src[0], src[1], 1080, 1920)
		if err != nil {
			t.Errorf("%dx%d: unexpected error: %v", src[0], src[1], err)
			continue
		}
		if !spec.Contained() {
			t.Errorf("%dx%d: crop window %+v escapes scaled frame", src[0], src[1], spec)
		}
		if spec.CropCenterX != float64(spec.ScaledWidth)/2 {
			t.Errorf("%dx%d: CropCenterX = %v, want %v", src[0], src[1], spec.CropCenterX, float64(spec.ScaledWidth)/2)
		}
		if spec.CropCenterY != float64(spec.ScaledHeight)/2 {
			t.Errorf("%dx%d: CropCenterY = %v", src[0], src[1], spec.CropCenterY)
		}
	}
}

func TestComputeCropNeedsPadding(t *testing.T) {
	// A 9:21 source scaled to 1920 high is ~822 wide, narrower than 1080.
	_, err := ComputeCrop(900, 2100, 1080, 1920)
	if !errors.Is(err, ErrNeedsPadding) {
		t.Fatalf("expected ErrNeedsPadding, got %v", err)
	}
}

func TestComputeCropGeneralTarget(t *testing.T) {
	spec, err := ComputeCrop(1920, 1080, 720, 720)
	if err != nil {
		t.Fatalf("ComputeCrop: %v", err)
	}
	if spec.ScaledWidth != 1280 || spec.ScaledHeight != 720 {
		t.Errorf("scaled = %dx%d", spec.ScaledWidth, spec.ScaledHeight)
	}
	if spec.CropX != 280 {
		t.Errorf("CropX = %d, want 280", spec.CropX)
	}
}

func TestComputeCropInvalidInput(t *testing.T) {
	if _, err := ComputeCrop(0, 1080, 1080, 1920); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := ComputeCrop(1920, 1080, 0, 1920); err == nil {
		t.Error("expected error for zero target")
	}
}
