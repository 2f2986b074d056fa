// Package parser turns spoken food descriptions into structured results.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoMatch is returned when a transcript does not describe a food.
var ErrNoMatch = errors.New("parser: transcript not understood")

// Result is a parsed transcript.
type Result struct {
	Name     string
	Grams    float64
	Calories float64
}

var (
	// "250 g of oatmeal, 170 kcal", "250 grams of oatmeal with 170 calories"
	amountFirstRe = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*(?:g|gr|grams?)\s+(?:of\s+)?(.+?)\s*(?:,|with|at|-)?\s*(\d+(?:\.\d+)?)\s*(?:kcal|cal|calories)\s*\.?\s*$`)
	// "oatmeal 250 g 170 kcal", "oatmeal, 250 grams, 170 calories"
	nameFirstRe = regexp.MustCompile(`(?i)^\s*(.+?)\s*,?\s+(\d+(?:\.\d+)?)\s*(?:g|gr|grams?)\s*,?\s*(\d+(?:\.\d+)?)\s*(?:kcal|cal|calories)\s*\.?\s*$`)
)

// Parse extracts name, grams and calories from a transcript.
func Parse(transcript string) (*Result, error) {
	t := strings.TrimSpace(transcript)
	if t == "" {
		return nil, ErrNoMatch
	}

	var name, grams, cal string
	if m := amountFirstRe.FindStringSubmatch(t); m != nil {
		grams, name, cal = m[1], m[2], m[3]
	} else if m := nameFirstRe.FindStringSubmatch(t); m != nil {
		name, grams, cal = m[1], m[2], m[3]
	} else {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, t)
	}

	g, err := strconv.ParseFloat(grams, 64)
	if err != nil {
		return nil, fmt.Errorf("parser: grams %q: %w", grams, err)
	}
	c, err := strconv.ParseFloat(cal, 64)
	if err != nil {
		return nil, fmt.Errorf("parser: calories %q: %w", cal, err)
	}
	name = cleanName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing food name", ErrNoMatch)
	}
	return &Result{Name: name, Grams: g, Calories: c}, nil
}

// cleanName trims filler and title-cases the first letter.
func cleanName(s string) string {
	s = strings.Trim(strings.TrimSpace(s), ",.-")
	for _, p := range []string{"some ", "a bowl of ", "a plate of "} {
		if len(s) > len(p) && strings.EqualFold(s[:len(p)], p) {
			s = s[len(p):]
		}
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
