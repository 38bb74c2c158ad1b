// Package tone plays the alarm chime. A chime is written in a small
// pattern language:
//
//	tone NOTE_A5 150ms      play a note (or a frequency in Hz)
//	delay 100ms             stay silent
//	loop 3 { ... }          repeat the enclosed commands
package tone

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the type of a pattern command.
type Kind int

const (
	KindTone Kind = iota
	KindDelay
	KindLoop
)

// Command is one step of a pattern.
type Command struct {
	Kind     Kind
	Freq     float64
	Duration time.Duration
	Count    int
	Body     []Command
}

// Parse parses a chime pattern.
func Parse(input string) ([]Command, error) {
	tokens := strings.Fields(input)
	cmds, next, err := parseBlock(tokens, 0, false)
	if err != nil {
		return nil, err
	}
	if next != len(tokens) {
		return nil, fmt.Errorf("unexpected %q at token %d", tokens[next], next)
	}
	return cmds, nil
}

// parseBlock parses until the end of input or, inside a loop, the
// matching "}". It returns the index after the last consumed token.
func parseBlock(tokens []string, i int, nested bool) ([]Command, int, error) {
	var cmds []Command
	for i < len(tokens) {
		switch tokens[i] {
		case "tone":
			if i+2 >= len(tokens) {
				return nil, i, fmt.Errorf("tone needs a note and a duration")
			}
			freq, err := parseFreq(tokens[i+1])
			if err != nil {
				return nil, i, err
			}
			d, err := parseDuration(tokens[i+2])
			if err != nil {
				return nil, i, err
			}
			cmds = append(cmds, Command{Kind: KindTone, Freq: freq, Duration: d})
			i += 3

		case "delay":
			if i+1 >= len(tokens) {
				return nil, i, fmt.Errorf("delay needs a duration")
			}
			d, err := parseDuration(tokens[i+1])
			if err != nil {
				return nil, i, err
			}
			cmds = append(cmds, Command{Kind: KindDelay, Duration: d})
			i += 2

		case "loop":
			if i+2 >= len(tokens) || tokens[i+2] != "{" {
				return nil, i, fmt.Errorf("loop syntax: loop COUNT { ... }")
			}
			count, err := strconv.Atoi(tokens[i+1])
			if err != nil || count < 0 {
				return nil, i, fmt.Errorf("invalid loop count %q", tokens[i+1])
			}
			body, next, err := parseBlock(tokens, i+3, true)
			if err != nil {
				return nil, next, err
			}
			cmds = append(cmds, Command{Kind: KindLoop, Count: count, Body: body})
			i = next

		case "}":
			if !nested {
				return nil, i, fmt.Errorf("unmatched }")
			}
			return cmds, i + 1, nil

		default:
			return nil, i, fmt.Errorf("unknown command %q", tokens[i])
		}
	}
	if nested {
		return nil, i, fmt.Errorf("closing } missing")
	}
	return cmds, i, nil
}

func parseFreq(s string) (float64, error) {
	if strings.HasPrefix(s, "NOTE_") {
		return NoteFrequency(s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}
	return f, nil
}

// parseDuration accepts a bare millisecond count, "150ms", or any
// time.ParseDuration string.
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(strings.TrimSuffix(s, "ms")); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// Length returns how long cmds take to play.
func Length(cmds []Command) time.Duration {
	var total time.Duration
	for _, c := range cmds {
		switch c.Kind {
		case KindTone, KindDelay:
			total += c.Duration
		case KindLoop:
			total += time.Duration(c.Count) * Length(c.Body)
		}
	}
	return total
}
