// Package problem decodes a frame payload into the set of holds that make up
// a climbing problem.
package problem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/coreman2200/funtimes-moonboard/internal/layout"
)

var (
	ErrInvalidHold      = errors.New("invalid hold")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Payload labels of the three hold lists.
const (
	LabelStart = "START"
	LabelMoves = "MOVES"
	LabelTop   = "TOP"
)

// Problem is one route: start holds (green), intermediate moves (blue) and
// the top (red).
type Problem struct {
	Start []string `json:"START"`
	Moves []string `json:"MOVES"`
	Top   []string `json:"TOP"`
}

// Len is the total number of holds.
func (p Problem) Len() int { return len(p.Start) + len(p.Moves) + len(p.Top) }

func (p Problem) String() string {
	return fmt.Sprintf("start=%v moves=%v top=%v", p.Start, p.Moves, p.Top)
}

// Decode parses a frame payload of the form
//
//	{"START":["A18"],"MOVES":["B16"],"TOP":["K1"]}
//
// and validates every hold against g. Hold names come back in canonical form.
func Decode(payload []byte, g layout.Grid) (Problem, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Problem{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if raw == nil {
		return Problem{}, fmt.Errorf("%w: not an object", ErrMalformedPayload)
	}

	var p Problem
	for _, l := range []struct {
		label string
		dst   *[]string
	}{
		{LabelStart, &p.Start},
		{LabelMoves, &p.Moves},
		{LabelTop, &p.Top},
	} {
		msg, ok := raw[l.label]
		if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			return Problem{}, fmt.Errorf("%w: missing %s list", ErrMalformedPayload, l.label)
		}
		var holds []string
		if err := json.Unmarshal(msg, &holds); err != nil {
			return Problem{}, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, l.label, err)
		}
		out := make([]string, 0, len(holds))
		for _, h := range holds {
			c, err := g.ParseHold(h)
			if err != nil {
				return Problem{}, fmt.Errorf("%w: %s list: %w", ErrInvalidHold, l.label, err)
			}
			canon, err := g.HoldAt(c.X, c.Y)
			if err != nil {
				return Problem{}, fmt.Errorf("%w: %s list: %w", ErrInvalidHold, l.label, err)
			}
			out = append(out, canon)
		}
		*l.dst = out
	}
	return p, nil
}

// Encode produces the payload Decode accepts.
func Encode(p Problem) ([]byte, error) {
	norm := Problem{Start: nonNil(p.Start), Moves: nonNil(p.Moves), Top: nonNil(p.Top)}
	return json.Marshal(norm)
}

// ParseList splits a comma separated hold list such as "A5, B7".
func ParseList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
