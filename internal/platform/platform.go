// Package platform registers the short-form destinations a clip can be
// framed for.
package platform

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// Platform describes the frame and delivery limits of one destination.
type Platform interface {
	// Name is the identifier used in configuration and on the CLI.
	Name() string

	// FrameSize returns the exact output frame size.
	FrameSize() (width, height int)

	// MaxClipSeconds is the longest clip the destination accepts.
	MaxClipSeconds() int

	// MaxFileSize is the largest upload in bytes.
	MaxFileSize() int64

	// AudioBitrate is the recommended audio bitrate, e.g. "128k".
	AudioBitrate() string

	// Container is the preferred container format, e.g. "mp4".
	Container() string
}

var (
	mu        sync.RWMutex
	platforms = make(map[string]Platform)
)

// Register adds a platform to the registry
func Register(p Platform) {
	mu.Lock()
	defer mu.Unlock()
	platforms[p.Name()] = p
}

// Get returns a platform by name
func Get(name string) (Platform, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := platforms[name]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", name)
	}
	return p, nil
}

// GetSupportedPlatforms returns the registered names in sorted order.
func GetSupportedPlatforms() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// portrait is the common 9:16 vertical destination.
type portrait struct {
	name         string
	maxSeconds   int
	maxFileSize  int64
	audioBitrate string
}

func (p portrait) Name() string                   { return p.name }
func (p portrait) FrameSize() (width, height int) { return 1080, 1920 }
func (p portrait) MaxClipSeconds() int            { return p.maxSeconds }
func (p portrait) MaxFileSize() int64             { return p.maxFileSize }
func (p portrait) AudioBitrate() string           { return p.audioBitrate }
func (p portrait) Container() string              { return "mp4" }
