package main

import (
	"errors"
	"math"
)

var (
	ErrOutOfBounds  = errors.New("OUT_OF_BOUNDS")
	ErrInvalidColor = errors.New("INVALID_COLOR")
)

type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PixelMutationRequest is the wire form of a single-pixel change.
// Coordinates and channels decode as float64 so that non-integer
// inputs can be rejected instead of silently truncated.
type PixelMutationRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color struct {
		R float64 `json:"r"`
		G float64 `json:"g"`
		B float64 `json:"b"`
	} `json:"color"`
}

// CanvasBuffer owns the authoritative in-memory pixel grid: a flat
// row-major RGBA byte sequence of length width*height*4. The buffer
// is allocated once at startup and mutated in place for the process
// lifetime. Alpha is always 255 and is not independently settable.
type CanvasBuffer struct {
	width  int
	height int
	pixels []byte
}

func NewCanvasBuffer(width int, height int) *CanvasBuffer {
	c := &CanvasBuffer{
		width:  width,
		height: height,
		pixels: make([]byte, width*height*4),
	}
	for i := 3; i < len(c.pixels); i += 4 {
		c.pixels[i] = 255
	}
	return c
}

func (c *CanvasBuffer) Width() int  { return c.width }
func (c *CanvasBuffer) Height() int { return c.height }

// PixelCount is the number of pixels, not bytes.
func (c *CanvasBuffer) PixelCount() int { return c.width * c.height }

// PixelIndex is the row-major linear position of (x, y). The
// persistence layer keys records by this value plus one.
func (c *CanvasBuffer) PixelIndex(x int, y int) int {
	return x + y*c.width
}

func isChannel(v float64) bool {
	return v == math.Trunc(v) && v >= 0 && v <= 255
}

// Validate checks a mutation request against the grid bounds and the
// color channel range. It does not look at the buffer contents.
func (c *CanvasBuffer) Validate(req PixelMutationRequest) error {
	if req.X != math.Trunc(req.X) || req.Y != math.Trunc(req.Y) {
		return ErrOutOfBounds
	}
	if req.X < 0 || req.X >= float64(c.width) || req.Y < 0 || req.Y >= float64(c.height) {
		return ErrOutOfBounds
	}
	if !isChannel(req.Color.R) || !isChannel(req.Color.G) || !isChannel(req.Color.B) {
		return ErrInvalidColor
	}
	return nil
}

// Apply writes one pixel's RGB and forces its alpha to 255. Callers
// must have validated the request; Apply itself is a pure in-memory
// write with no broadcast or persistence side effects.
func (c *CanvasBuffer) Apply(x int, y int, color RGB) {
	offset := (c.width*y + x) * 4
	c.pixels[offset] = byte(color.R)
	c.pixels[offset+1] = byte(color.G)
	c.pixels[offset+2] = byte(color.B)
	c.pixels[offset+3] = 255
}

// FullReset overwrites every pixel's RGB with the given color. The
// per-pixel alpha byte is left as-is.
func (c *CanvasBuffer) FullReset(color RGB) {
	for offset := 0; offset < len(c.pixels); offset += 4 {
		c.pixels[offset] = byte(color.R)
		c.pixels[offset+1] = byte(color.G)
		c.pixels[offset+2] = byte(color.B)
	}
}

// Snapshot returns a copy of the buffer safe to hand to broadcast and
// HTTP encoding without holding the service lock.
func (c *CanvasBuffer) Snapshot() []byte {
	out := make([]byte, len(c.pixels))
	copy(out, c.pixels)
	return out
}
