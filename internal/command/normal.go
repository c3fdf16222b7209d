package command

import (
	"strconv"

	"github.com/tgvdev/tgv/internal/tgverr"
)

const (
	// zoomStep is the per-keypress zoom factor; repeat prefixes multiply it.
	zoomStep = 2

	// maxRepeat caps the numeric prefix so a stray paste cannot trigger a
	// runaway motion.
	maxRepeat = 10_000

	largeLaneStep = 30
)

// NormalRegister accumulates Normal-mode keystrokes until they resolve into a
// command. Digits build the repeat prefix; "g" waits for a second key.
type NormalRegister struct {
	input string
}

// Pending returns the accumulated, not-yet-resolved input for display.
func (r *NormalRegister) Pending() string { return r.input }

// Clear drops accumulated input.
func (r *NormalRegister) Clear() { r.input = "" }

// AwaitingG reports whether the register is mid two-key motion.
func (r *NormalRegister) AwaitingG() bool {
	return len(r.input) > 0 && r.input[len(r.input)-1] == 'g'
}

// Feed consumes one Normal-mode key. It returns a non-nil command when the
// input resolves, nil when more keys are expected, and an error when the
// sequence is invalid (the register is cleared either way).
func (r *NormalRegister) Feed(key string) (Command, error) {
	switch key {
	case "left":
		key = "h"
	case "right":
		key = "l"
	case "up":
		key = "k"
	case "down":
		key = "j"
	case "esc":
		r.Clear()
		return nil, nil
	}
	if len(key) != 1 {
		r.Clear()
		return nil, tgverr.New(tgverr.ParseCommand, "unbound key %q", key)
	}

	ch := key[0]
	switch {
	case ch >= '0' && ch <= '9':
		if r.input == "" || isAllDigits(r.input) {
			r.input += key
			return nil, nil
		}
	case ch == 'g':
		// First g of a two-key motion, or gg when one is already pending.
		if r.input == "" || isAllDigits(r.input) {
			r.input += "g"
			return nil, nil
		}
	}

	input := r.input + key
	r.Clear()
	return parseNormal(input)
}

func parseNormal(input string) (Command, error) {
	digits, suffix := splitPrefix(input)

	n := 1
	if digits != "" {
		parsed, err := strconv.Atoi(digits)
		if err != nil {
			return nil, tgverr.New(tgverr.ParseCommand, "bad repeat prefix %q", digits)
		}
		n = parsed
		if n == 0 {
			n = 1
		}
		if n > maxRepeat {
			n = maxRepeat
		}
	}

	if m, ok := motionForSuffix(suffix); ok {
		m.Count = n
		return m, nil
	}

	switch suffix {
	case "h":
		return Pan{Bases: -n}, nil
	case "l":
		return Pan{Bases: n}, nil
	case "j":
		return Scroll{Lanes: n}, nil
	case "k":
		return Scroll{Lanes: -n}, nil
	case "y":
		return PanWindow{Windows: -n}, nil
	case "p":
		return PanWindow{Windows: n}, nil
	case "{":
		return Scroll{Lanes: -n * largeLaneStep}, nil
	case "}":
		return Scroll{Lanes: n * largeLaneStep}, nil
	case "z":
		return ZoomIn{Factor: zoomStep * n}, nil
	case "o":
		return ZoomOut{Factor: zoomStep * n}, nil
	case "gg":
		return ScrollTop{}, nil
	case "G":
		return ScrollBottom{}, nil
	}
	return nil, tgverr.New(tgverr.ParseCommand, "invalid input %q", input)
}
