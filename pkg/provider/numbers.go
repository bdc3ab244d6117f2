package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

const floatEpsilon = 1e-6

// Numeric generates ints, floats, bools, and decimals. Bounds narrow a
// default symmetric range; when the narrowed lower bound exceeds the upper
// bound the range collapses to the upper bound so that technically
// satisfiable edge constraints (ge=10, le=10) still make progress.
func Numeric(req *Request) (any, error) {
	switch req.Summary.Type {
	case schema.KindBool:
		return req.Rand.IntN(2) == 0, nil
	case schema.KindInt:
		return generateInt(req), nil
	case schema.KindFloat:
		return generateFloat(req), nil
	case schema.KindDecimal:
		return generateDecimal(req)
	default:
		return nil, fmt.Errorf("unsupported numeric type %q", req.Summary.Type)
	}
}

func generateInt(req *Request) int64 {
	c := req.Summary.Constraints
	minimum := req.Numbers.IntMin
	maximum := req.Numbers.IntMax

	if c.Ge != nil {
		minimum = int64(math.Ceil(*c.Ge))
	}
	if c.Gt != nil {
		minimum = int64(math.Floor(*c.Gt)) + 1
	}
	if c.Le != nil {
		maximum = int64(math.Floor(*c.Le))
	}
	if c.Lt != nil {
		maximum = int64(math.Ceil(*c.Lt)) - 1
	}

	if minimum > maximum {
		minimum = maximum
	}
	if minimum == maximum {
		return minimum
	}
	return minimum + req.Rand.Int64N(maximum-minimum+1)
}

func generateFloat(req *Request) float64 {
	c := req.Summary.Constraints
	minimum := req.Numbers.FloatMin
	maximum := req.Numbers.FloatMax

	if c.Ge != nil {
		minimum = *c.Ge
	}
	if c.Gt != nil {
		minimum = *c.Gt + floatEpsilon
	}
	if c.Le != nil {
		maximum = *c.Le
	}
	if c.Lt != nil {
		maximum = *c.Lt - floatEpsilon
	}

	if minimum > maximum {
		minimum = maximum
	}
	if minimum == maximum {
		return minimum
	}
	return minimum + req.Rand.Float64()*(maximum-minimum)
}

const defaultDecimalPlaces = 2

// generateDecimal draws an integer number of quantization steps between the
// scaled bounds, so the result always has exactly the declared number of
// fractional digits. MaxDigits clamps the magnitude by capping the integer
// digits. The value is returned as a json.Number to preserve the digits
// through serialization.
func generateDecimal(req *Request) (any, error) {
	c := req.Summary.Constraints

	places := defaultDecimalPlaces
	if c.DecimalPlaces != nil {
		places = *c.DecimalPlaces
	}
	if places < 0 || places > 12 {
		return nil, fmt.Errorf("decimal places %d out of supported range [0, 12]", places)
	}

	scale := int64(1)
	for i := 0; i < places; i++ {
		scale *= 10
	}

	// Bounds in quantization steps. Ceil for lower, floor for upper so both
	// endpoints remain satisfiable.
	lower := scaleSteps(req.Numbers.FloatMin, scale, true)
	upper := scaleSteps(req.Numbers.FloatMax, scale, false)

	if c.Ge != nil {
		lower = scaleSteps(*c.Ge, scale, true)
	}
	if c.Gt != nil {
		lower = scaleSteps(*c.Gt, scale, false) + 1
	}
	if c.Le != nil {
		upper = scaleSteps(*c.Le, scale, false)
	}
	if c.Lt != nil {
		upper = scaleSteps(*c.Lt, scale, true) - 1
	}

	if c.MaxDigits != nil {
		integerDigits := *c.MaxDigits - places
		if integerDigits < 1 {
			integerDigits = 1
		}
		limit := int64(1)
		for i := 0; i < integerDigits; i++ {
			limit *= 10
		}
		// Largest representable magnitude: 10^intDigits - one step.
		maxSteps := limit*scale - 1
		if upper > maxSteps {
			upper = maxSteps
		}
		if lower < -maxSteps {
			lower = -maxSteps
		}
	}

	if lower > upper {
		lower = upper
	}

	steps := lower
	if lower < upper {
		steps = lower + req.Rand.Int64N(upper-lower+1)
	}
	return json.Number(formatSteps(steps, places)), nil
}

// scaleSteps converts a float bound into whole quantization steps, rounding
// toward the satisfiable side.
func scaleSteps(v float64, scale int64, ceil bool) int64 {
	scaled := v * float64(scale)
	if ceil {
		return int64(math.Ceil(scaled - 1e-9))
	}
	return int64(math.Floor(scaled + 1e-9))
}

// formatSteps renders a step count as a fixed-point decimal string with the
// given number of fractional digits.
func formatSteps(steps int64, places int) string {
	if places == 0 {
		return fmt.Sprintf("%d", steps)
	}
	neg := steps < 0
	if neg {
		steps = -steps
	}
	scale := int64(1)
	for i := 0; i < places; i++ {
		scale *= 10
	}
	intPart := steps / scale
	fracPart := steps % scale

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	fmt.Fprintf(&b, "%d.%0*d", intPart, places, fracPart)
	return b.String()
}
