// Package config holds the pixel geometry and solver limits shared by every
// layout stage.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	kterrors "github.com/matzehuels/kintree/pkg/errors"
)

// Config is the layout geometry. All lengths are pixels.
type Config struct {
	CardWidth        float64 `json:"cardWidth" toml:"card_width" validate:"gt=0"`
	CardHeight       float64 `json:"cardHeight" toml:"card_height" validate:"gt=0"`
	HorizontalGap    float64 `json:"horizontalGap" toml:"horizontal_gap" validate:"gt=0"`
	VerticalGap      float64 `json:"verticalGap" toml:"vertical_gap" validate:"gt=0"`
	Padding          float64 `json:"padding" toml:"padding" validate:"gte=0"`
	MinEdgeClearance float64 `json:"minEdgeClearance" toml:"min_edge_clearance" validate:"gte=0"`

	// MaxIterations caps the constraint solver's refinement passes.
	MaxIterations int `json:"maxIterations" toml:"max_iterations" validate:"gte=1,lte=1000"`
	// Tolerance is the x-delta below which the solver treats a pass as
	// converged, and the slack allowed on locked positions.
	Tolerance float64 `json:"tolerance" toml:"tolerance" validate:"gt=0"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		CardWidth:        160,
		CardHeight:       70,
		HorizontalGap:    30,
		VerticalGap:      80,
		Padding:          40,
		MinEdgeClearance: 12,
		MaxIterations:    40,
		Tolerance:        0.5,
	}
}

// WithDefaults fills zero fields from Default.
func (c Config) WithDefaults() Config {
	d := Default()
	if c.CardWidth == 0 {
		c.CardWidth = d.CardWidth
	}
	if c.CardHeight == 0 {
		c.CardHeight = d.CardHeight
	}
	if c.HorizontalGap == 0 {
		c.HorizontalGap = d.HorizontalGap
	}
	if c.VerticalGap == 0 {
		c.VerticalGap = d.VerticalGap
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Tolerance == 0 {
		c.Tolerance = d.Tolerance
	}
	return c
}

// RowHeight is the vertical distance between two generation rows.
func (c Config) RowHeight() float64 { return c.CardHeight + c.VerticalGap }

// LaneStep is the vertical offset between two bus lanes.
func (c Config) LaneStep() float64 { return math.Min(8, c.VerticalGap*0.1) }

// CoupleWidth is the width of two cards side by side.
func (c Config) CoupleWidth() float64 { return 2*c.CardWidth + c.HorizontalGap }

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks that every magnitude is in range. Errors carry
// [kterrors.ErrCodeInvalidConfig] and name each offending field.
func (c Config) Validate() error {
	validateOnce.Do(func() { validate = validator.New() })

	for _, v := range []float64{c.CardWidth, c.CardHeight, c.HorizontalGap, c.VerticalGap,
		c.Padding, c.MinEdgeClearance, c.Tolerance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return kterrors.New(kterrors.ErrCodeInvalidConfig, "layout config contains a non-finite value")
		}
	}

	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return kterrors.Wrap(kterrors.ErrCodeInvalidConfig, err, "validate layout config")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s must be %s %s (got %v)", fe.Field(), opWord(fe.Tag()), fe.Param(), fe.Value())
	}
	return kterrors.New(kterrors.ErrCodeInvalidConfig, "invalid layout config: %s", strings.Join(msgs, "; "))
}

func opWord(tag string) string {
	switch tag {
	case "gt":
		return ">"
	case "gte":
		return ">="
	case "lt":
		return "<"
	case "lte":
		return "<="
	}
	return tag
}
