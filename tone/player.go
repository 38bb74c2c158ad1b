package tone

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

// maxVolume caps output at 30% of full scale.
const maxVolume = 0.3

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// audioContext returns the process-wide oto context; oto allows only one.
func audioContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(SampleRate, 1, 2)
		if err != nil {
			otoErr = fmt.Errorf("opening audio device: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// Player plays chime patterns.
type Player struct {
	volume float64
	mu     sync.Mutex

	// emit plays data, which lasts d, and returns once it has finished or
	// ctx is done.
	emit func(ctx context.Context, data []byte, d time.Duration) error
}

// NewPlayer opens the audio device. volume is a percentage, 0-100.
func NewPlayer(volume int) (*Player, error) {
	ctx, err := audioContext()
	if err != nil {
		return nil, err
	}
	return newPlayer(volume, func(c context.Context, data []byte, d time.Duration) error {
		p := ctx.NewPlayer(bytes.NewReader(data))
		p.Play()
		defer p.Close()
		return sleep(c, d)
	}), nil
}

func newPlayer(volume int, emit func(context.Context, []byte, time.Duration) error) *Player {
	return &Player{
		volume: float64(volume) / 100 * maxVolume,
		emit:   emit,
	}
}

// Play plays cmds to the end or until ctx is done. Concurrent calls are
// serialized.
func (p *Player) Play(ctx context.Context, cmds []Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.play(ctx, cmds)
}

func (p *Player) play(ctx context.Context, cmds []Command) error {
	for _, c := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch c.Kind {
		case KindTone:
			if err := p.emit(ctx, Synthesize(c.Freq, c.Duration, p.volume), c.Duration); err != nil {
				return err
			}
		case KindDelay:
			if err := sleep(ctx, c.Duration); err != nil {
				return err
			}
		case KindLoop:
			for i := 0; i < c.Count; i++ {
				if err := p.play(ctx, c.Body); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
