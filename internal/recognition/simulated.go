package recognition

import (
	"context"
	"fmt"
	"strconv"

	"github.com/starford/nutrilog/internal/checksum"
	"github.com/starford/nutrilog/internal/parser"
)

// DefaultTranscripts are the canned utterances of the simulated voice
// recognizer.
var DefaultTranscripts = []string{
	"250 g of oatmeal, 170 kcal",
	"200 grams of chicken curry with 290 calories",
	"banana 118 g 105 kcal",
	"150 g of greek yogurt, 89 kcal",
	"300 g of vegetable khichdi, 450 kcal",
}

// DefaultPhotoResults are the canned outcomes of the simulated photo
// recognizer.
var DefaultPhotoResults = []Result{
	{Name: "Grilled Chicken Salad", Grams: 320, Calories: 410, Confidence: 0.87},
	{Name: "Margherita Pizza", Grams: 210, Calories: 560, Confidence: 0.92},
	{Name: "Pasta Bolognese", Grams: 350, Calories: 620, Confidence: 0.64},
	{Name: "Sushi Platter", Grams: 280, Calories: 470, Confidence: 0.41},
}

// SimulatedVoice picks a canned transcript from the capture checksum and
// parses it.
type SimulatedVoice struct {
	Transcripts []string
}

// Recognize implements Recognizer.
func (v SimulatedVoice) Recognize(_ context.Context, capture []byte) (Result, error) {
	ts := v.Transcripts
	if len(ts) == 0 {
		ts = DefaultTranscripts
	}
	t := ts[pick(capture, len(ts))]
	p, err := parser.Parse(t)
	if err != nil {
		return Result{}, fmt.Errorf("recognition: voice: %w", err)
	}
	return Result{Name: p.Name, Grams: p.Grams, Calories: p.Calories, Transcript: t}, nil
}

// SimulatedPhoto picks a canned result from the capture checksum.
type SimulatedPhoto struct {
	Results []Result
}

// Recognize implements Recognizer.
func (p SimulatedPhoto) Recognize(_ context.Context, capture []byte) (Result, error) {
	rs := p.Results
	if len(rs) == 0 {
		rs = DefaultPhotoResults
	}
	return rs[pick(capture, len(rs))], nil
}

// pick maps capture bytes onto [0, n) deterministically.
func pick(capture []byte, n int) int {
	v, err := strconv.ParseUint(checksum.Sum(capture)[:8], 16, 32)
	if err != nil {
		return 0
	}
	return int(v % uint64(n))
}
