package tuitest

import "time"

// DefaultStepDelay gives the program time to redraw between keystrokes.
const DefaultStepDelay = 150 * time.Millisecond

// Keys turns each input into its own step, delayed by DefaultStepDelay.
// Strings are written as typed runes; byte slices are written verbatim.
func Keys(inputs ...any) []Step {
	steps := make([]Step, 0, len(inputs))
	for _, in := range inputs {
		var raw []byte
		switch v := in.(type) {
		case string:
			raw = []byte(v)
		case []byte:
			raw = v
		case rune:
			raw = []byte(string(v))
		default:
			continue
		}
		steps = append(steps, Step{Delay: DefaultStepDelay, Input: raw})
	}
	return steps
}

// Wait is a step that only sleeps.
func Wait(d time.Duration) Step {
	return Step{Delay: d}
}

// Script concatenates step groups in order.
func Script(groups ...[]Step) []Step {
	var out []Step
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
