// Package geometry holds the hit-testing primitives for risk zone shapes.
// Coordinates are in the pixel space of the source image.
package geometry

import (
	"errors"
	"fmt"
)

// ErrInvalidShape is returned for shapes with non-positive extents or
// malformed wire coordinates.
var ErrInvalidShape = errors.New("invalid shape")

type Kind string

const (
	KindCircle    Kind = "circle"
	KindRectangle Kind = "rectangle"
)

// Shape is a closed region. Contains is boundary inclusive for every shape.
type Shape interface {
	Kind() Kind
	Contains(x, y float64) bool
	Validate() error
	Coordinates() []float64
}

type Circle struct {
	CX, CY, R float64
}

func (Circle) Kind() Kind { return KindCircle }

func (c Circle) Contains(x, y float64) bool {
	dx, dy := x-c.CX, y-c.CY
	return dx*dx+dy*dy <= c.R*c.R
}

func (c Circle) Validate() error {
	if !(c.R > 0) {
		return fmt.Errorf("%w: circle radius must be positive, got %v", ErrInvalidShape, c.R)
	}
	return nil
}

func (c Circle) Coordinates() []float64 { return []float64{c.CX, c.CY, c.R} }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

func (Rect) Kind() Kind { return KindRectangle }

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

func (r Rect) Validate() error {
	if !(r.W > 0) || !(r.H > 0) {
		return fmt.Errorf("%w: rectangle width and height must be positive, got %vx%v", ErrInvalidShape, r.W, r.H)
	}
	return nil
}

func (r Rect) Coordinates() []float64 { return []float64{r.X, r.Y, r.W, r.H} }

// Contains reports whether the point lies inside s. A nil shape contains nothing.
func Contains(s Shape, x, y float64) bool {
	if s == nil {
		return false
	}
	return s.Contains(x, y)
}

// Decode builds a shape from its wire form: [cx, cy, r] for circles and
// [x, y, w, h] for rectangles. The result is validated.
func Decode(kind Kind, coords []float64) (Shape, error) {
	var s Shape
	switch kind {
	case KindCircle:
		if len(coords) != 3 {
			return nil, fmt.Errorf("%w: circle needs 3 coordinates, got %d", ErrInvalidShape, len(coords))
		}
		s = Circle{CX: coords[0], CY: coords[1], R: coords[2]}
	case KindRectangle:
		if len(coords) != 4 {
			return nil, fmt.Errorf("%w: rectangle needs 4 coordinates, got %d", ErrInvalidShape, len(coords))
		}
		s = Rect{X: coords[0], Y: coords[1], W: coords[2], H: coords[3]}
	default:
		return nil, fmt.Errorf("%w: unsupported shape type %q", ErrInvalidShape, kind)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// CircleAt returns a circle of radius r centred on (x, y).
func CircleAt(x, y, r float64) Circle {
	return Circle{CX: x, CY: y, R: r}
}

// RectAround returns a w×h rectangle centred on (x, y).
func RectAround(x, y, w, h float64) Rect {
	return Rect{X: x - w/2, Y: y - h/2, W: w, H: h}
}
