package nutrition

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/models"
)

// CustomServing is the serving index that means "use the typed gram amount".
const CustomServing = -1

// ServingSelection is the user's serving choice for a food.
type ServingSelection struct {
	// ManualOverride forces ManualGrams regardless of Index.
	ManualOverride bool `json:"manual_override"`
	// ManualGrams is the raw typed text of the grams field.
	ManualGrams string `json:"manual_grams"`
	// Index selects the default serving (0), an alternative portion (i>0,
	// AlternativePortions[i-1]) or CustomServing.
	Index int `json:"index"`
	// Quantity multiplies a named serving. Zero means one serving.
	Quantity float64 `json:"quantity"`
}

// ResolveGrams turns a serving selection into a positive gram amount.
func ResolveGrams(food models.FoodDefinition, sel ServingSelection) (float64, error) {
	var grams float64
	switch {
	case sel.ManualOverride:
		g, err := parseGrams(sel.ManualGrams)
		if err != nil {
			return 0, err
		}
		grams = g

	case sel.Index == CustomServing:
		if strings.TrimSpace(sel.ManualGrams) == "" {
			grams = food.DefaultServing.Grams
			break
		}
		g, err := parseGrams(sel.ManualGrams)
		if err != nil {
			return 0, err
		}
		grams = g

	case sel.Index == 0:
		q, err := quantity(sel.Quantity)
		if err != nil {
			return 0, err
		}
		grams = food.DefaultServing.Grams * q

	case sel.Index > 0 && sel.Index <= len(food.AlternativePortions):
		q, err := quantity(sel.Quantity)
		if err != nil {
			return 0, err
		}
		grams = food.AlternativePortions[sel.Index-1].Grams * q

	default:
		return 0, fmt.Errorf("%w: serving index %d out of range", apperr.ErrInvalidInput, sel.Index)
	}

	if !(grams > 0) || math.IsInf(grams, 0) {
		return 0, fmt.Errorf("%w: grams must be greater than 0", apperr.ErrInvalidInput)
	}
	return grams, nil
}

func parseGrams(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: grams is required", apperr.ErrInvalidInput)
	}
	g, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: grams %q is not a number", apperr.ErrInvalidInput, raw)
	}
	return g, nil
}

// quantity accepts multiples of 0.5 starting at 0.5.
func quantity(q float64) (float64, error) {
	if q == 0 {
		return 1, nil
	}
	if q < 0.5 || math.Mod(q*2, 1) != 0 {
		return 0, fmt.Errorf("%w: quantity %v must be a positive multiple of 0.5", apperr.ErrInvalidInput, q)
	}
	return q, nil
}
