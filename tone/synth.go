package tone

import (
	"math"
	"time"
)

// SampleRate is the playback rate in Hz, mono, 16-bit little endian.
const SampleRate = 44100

// Synthesize renders a sine wave of freq for d at volume (0..1).
func Synthesize(freq float64, d time.Duration, volume float64) []byte {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}

	samples := int(float64(SampleRate) * d.Seconds())
	data := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		sample := math.Sin(2 * math.Pi * freq * float64(i) / SampleRate)
		value := int16(sample * math.MaxInt16 * volume)
		data[i*2] = byte(value)
		data[i*2+1] = byte(value >> 8)
	}
	return data
}
