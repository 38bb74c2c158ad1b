package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dingwecker/alarm"
	"dingwecker/chain"
	"dingwecker/config"
	"dingwecker/display"
	"dingwecker/log"
	"dingwecker/notify"
	"dingwecker/tone"
	"dingwecker/web"
)

var runHeadless bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the alarm clock",
	Long: `Run the alarm clock with its terminal display. Alarms fire at the configured
morning and evening times; press T to trigger the chain by hand.

With --headless no display is drawn and countdown messages go to the log.`,
	Args: cobra.NoArgs,
	RunE: runClock,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run without the terminal display")
	rootCmd.AddCommand(runCmd)
}

func runClock(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifiers := []notify.Notifier{notify.NewLog()}
	var toasts *display.Notifier
	if !runHeadless {
		toasts = display.NewNotifier()
		notifiers = append(notifiers, toasts)
	}

	svc := newServices(cfg, notifiers...)
	defer svc.Close()
	if toasts != nil {
		svc.onStatus = toasts.StatusChanged
	}

	alarms := alarm.NewManager(cfg)
	chime := newChime(cfg.Chime)
	alarms.SetCallbacks(alarm.Callbacks{
		OnAlarmTriggered: func(slot alarm.Slot, at time.Time) {
			go chime.play(ctx)
			if _, err := svc.chain.Start(chain.Trigger{Source: "alarm", Slot: string(slot), At: at}); err != nil {
				log.Warn("alarm trigger not started", "slot", string(slot), "error", err)
			}
		},
	})
	if slot, at, ok := alarms.Next(); ok {
		log.Info("next alarm", "slot", string(slot), "at", at)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return alarms.Run(ctx)
	})

	if cfg.HTTP.Addr != "" {
		var history web.History
		if svc.journal != nil {
			history = svc.journal
		}
		srv := web.New(cfg.HTTP.Addr, svc.chain, history, alarms)
		g.Go(func() error {
			log.Info("http api listening", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if runHeadless {
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})
	} else {
		app := display.NewApp(cfg, svc.chain, alarms, toasts)
		g.Go(func() error {
			defer stop()
			return app.Run()
		})
		g.Go(func() error {
			<-ctx.Done()
			app.Stop()
			return nil
		})
	}

	err = g.Wait()
	svc.chain.Cancel()
	return err
}

// chime plays the alarm tone pattern. A chime that cannot be parsed or
// has no audio device stays silent.
type chime struct {
	cfg      config.ChimeConfig
	mu       sync.Mutex
	commands []tone.Command
	player   *tone.Player
}

func newChime(cfg config.ChimeConfig) *chime {
	c := &chime{cfg: cfg}
	if !cfg.Enabled {
		return c
	}
	cmds, err := tone.Parse(cfg.Pattern)
	if err != nil {
		log.Warn("chime disabled, invalid pattern", "error", err)
		return c
	}
	c.commands = cmds
	return c
}

func (c *chime) play(ctx context.Context) {
	c.mu.Lock()
	if len(c.commands) == 0 {
		c.mu.Unlock()
		return
	}
	if c.player == nil {
		p, err := tone.NewPlayer(c.cfg.Volume)
		if err != nil {
			log.Warn("chime disabled", "error", err)
			c.commands = nil
			c.mu.Unlock()
			return
		}
		c.player = p
	}
	player, cmds := c.player, c.commands
	c.mu.Unlock()

	if err := player.Play(ctx, cmds); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("chime", "error", err)
	}
}
