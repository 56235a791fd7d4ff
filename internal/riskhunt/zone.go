package riskhunt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acapella/riskhunt/internal/geometry"
)

func (z RiskZone) Validate() error {
	if z.Shape == nil {
		return fmt.Errorf("%w: zone %q has no shape", ErrValidation, z.ID)
	}
	if err := z.Shape.Validate(); err != nil {
		return fmt.Errorf("%w: zone %q: %w", ErrValidation, z.ID, err)
	}
	if !z.Difficulty.Valid() {
		return fmt.Errorf("%w: zone %q: difficulty must be easy, medium or hard", ErrValidation, z.ID)
	}
	if z.Points < 0 {
		return fmt.Errorf("%w: zone %q: points must not be negative", ErrValidation, z.ID)
	}
	return nil
}

func (z RiskZone) Contains(x, y float64) bool {
	return geometry.Contains(z.Shape, x, y)
}

type zoneJSON struct {
	ID          string        `json:"id"`
	Type        geometry.Kind `json:"type"`
	Coordinates []float64     `json:"coordinates"`
	Description string        `json:"description"`
	Explanation string        `json:"explanation"`
	Difficulty  Difficulty    `json:"difficulty"`
	Points      *int          `json:"points"`
	Color       string        `json:"color,omitempty"`
}

func (z RiskZone) MarshalJSON() ([]byte, error) {
	points := z.Points
	out := zoneJSON{
		ID:          z.ID,
		Description: z.Description,
		Explanation: z.Explanation,
		Difficulty:  z.Difficulty,
		Points:      &points,
		Color:       z.Color,
	}
	if z.Shape != nil {
		out.Type = z.Shape.Kind()
		out.Coordinates = z.Shape.Coordinates()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the {type, coordinates} wire form. Missing
// difficulty and points default to medium and 1.
func (z *RiskZone) UnmarshalJSON(data []byte) error {
	var in zoneJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	shape, err := geometry.Decode(geometry.Kind(strings.ToLower(string(in.Type))), in.Coordinates)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	*z = RiskZone{
		ID:          strings.TrimSpace(in.ID),
		Shape:       shape,
		Description: in.Description,
		Explanation: in.Explanation,
		Difficulty:  in.Difficulty,
		Points:      1,
		Color:       in.Color,
	}
	if z.Difficulty == "" {
		z.Difficulty = DifficultyMedium
	}
	if in.Points != nil {
		z.Points = *in.Points
	}
	return nil
}

// ZonePatch is a partial update of a zone. Nil fields are left unchanged.
type ZonePatch struct {
	Shape       geometry.Shape
	Description *string
	Explanation *string
	Difficulty  *Difficulty
	Points      *int
	Color       *string
}

func (p ZonePatch) Empty() bool {
	return p.Shape == nil && p.Description == nil && p.Explanation == nil &&
		p.Difficulty == nil && p.Points == nil && p.Color == nil
}

// Apply returns z with the patch applied. The result is validated.
func (p ZonePatch) Apply(z RiskZone) (RiskZone, error) {
	if p.Empty() {
		return z, fmt.Errorf("%w: patch has no fields", ErrValidation)
	}
	if p.Shape != nil {
		z.Shape = p.Shape
	}
	if p.Description != nil {
		z.Description = *p.Description
	}
	if p.Explanation != nil {
		z.Explanation = *p.Explanation
	}
	if p.Difficulty != nil {
		z.Difficulty = *p.Difficulty
	}
	if p.Points != nil {
		z.Points = *p.Points
	}
	if p.Color != nil {
		z.Color = *p.Color
	}
	if err := z.Validate(); err != nil {
		return z, err
	}
	return z, nil
}

type patchJSON struct {
	Type        *geometry.Kind `json:"type"`
	Coordinates []float64      `json:"coordinates"`
	Description *string        `json:"description"`
	Explanation *string        `json:"explanation"`
	Difficulty  *Difficulty    `json:"difficulty"`
	Points      *int           `json:"points"`
	Color       *string        `json:"color"`
}

func (p *ZonePatch) UnmarshalJSON(data []byte) error {
	var in patchJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = ZonePatch{
		Description: in.Description,
		Explanation: in.Explanation,
		Difficulty:  in.Difficulty,
		Points:      in.Points,
		Color:       in.Color,
	}
	switch {
	case in.Type != nil:
		shape, err := geometry.Decode(geometry.Kind(strings.ToLower(string(*in.Type))), in.Coordinates)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		p.Shape = shape
	case in.Coordinates != nil:
		return fmt.Errorf("%w: coordinates require a shape type", ErrValidation)
	}
	return nil
}
