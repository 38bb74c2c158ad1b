package tone

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var semitones = map[string]int{
	"C": 0, "CS": 1, "D": 2, "DS": 3, "E": 4, "F": 5,
	"FS": 6, "G": 7, "GS": 8, "A": 9, "AS": 10, "B": 11,
}

// Lowest and highest playable notes, B0 and DS8.
const (
	lowestNote  = 0*12 + 11
	highestNote = 8*12 + 3
)

// NoteFrequency returns the equal-tempered frequency, rounded to whole
// hertz, of a note named like NOTE_A4 or NOTE_CS6.
func NoteFrequency(name string) (float64, error) {
	rest, ok := strings.CutPrefix(name, "NOTE_")
	if !ok || len(rest) < 2 {
		return 0, fmt.Errorf("unknown note %q", name)
	}

	pitch, octaveStr := rest[:len(rest)-1], rest[len(rest)-1:]
	semi, ok := semitones[pitch]
	if !ok {
		return 0, fmt.Errorf("unknown note %q", name)
	}
	octave, err := strconv.Atoi(octaveStr)
	if err != nil {
		return 0, fmt.Errorf("unknown note %q", name)
	}

	n := octave*12 + semi
	if n < lowestNote || n > highestNote {
		return 0, fmt.Errorf("note %q out of range NOTE_B0..NOTE_DS8", name)
	}
	// A4 is note 57.
	return math.Round(440 * math.Pow(2, float64(n-57)/12)), nil
}
