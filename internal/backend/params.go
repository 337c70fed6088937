package backend

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Parameter bounds and defaults.
const (
	MinMaxLength = 10
	MaxMaxLength = 2048

	DefaultMaxLength         = 512
	DefaultTemperature       = 0.7
	DefaultTopP              = 0.9
	DefaultTopK              = 50
	DefaultRepetitionPenalty = 1.1
)

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid generation parameters")

var validate = validator.New()

// Params are the numeric generation parameters passed to every driver.
// Values are never mutated after construction; use the With* helpers to
// derive a modified copy.
type Params struct {
	MaxLength         int     `json:"max_length" validate:"gte=10,lte=2048"`
	Temperature       float64 `json:"temperature" validate:"gte=0,lte=2"`
	TopP              float64 `json:"top_p" validate:"gte=0,lte=1"`
	TopK              int     `json:"top_k" validate:"gte=0"`
	RepetitionPenalty float64 `json:"repetition_penalty" validate:"gt=0"`
	Sample            bool    `json:"do_sample"`
}

// DefaultParams returns the baseline parameters used when a task does not
// override them.
func DefaultParams() Params {
	return Params{
		MaxLength:         DefaultMaxLength,
		Temperature:       DefaultTemperature,
		TopP:              DefaultTopP,
		TopK:              DefaultTopK,
		RepetitionPenalty: DefaultRepetitionPenalty,
		Sample:            true,
	}
}

// NewParams builds parameters from the defaults with the given output
// length and temperature. Out-of-range values are rejected, not clamped.
func NewParams(maxLength int, temperature float64) (Params, error) {
	p := DefaultParams()
	p.MaxLength = maxLength
	p.Temperature = temperature
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// WithMaxLength returns a copy with MaxLength replaced.
func (p Params) WithMaxLength(n int) Params {
	p.MaxLength = n
	return p
}

// Validate reports the first out-of-range field wrapped in ErrInvalidParams.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s=%v violates %s=%s", ErrInvalidParams, fe.Field(), fe.Value(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
