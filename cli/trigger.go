package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dingwecker/chain"
	"dingwecker/journal"
	"dingwecker/notify"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Run one countdown chain now and wait for it to finish",
	Long: `Start the chain immediately: count down a random delay, open the target,
count down the return delay and restore this application. Ctrl+C cancels.`,
	Args: cobra.NoArgs,
	RunE: triggerChain,
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}

func triggerChain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifiers := []notify.Notifier{notify.NewLog()}
	if !jsonOut {
		notifiers = append(notifiers, printer{w: cmd.OutOrStdout()})
	}
	svc := newServices(cfg, notifiers...)
	defer svc.Close()

	finished := make(chan chain.Run, 1)
	svc.onFinished = func(run chain.Run) { finished <- run }

	if _, err := svc.chain.Start(chain.Trigger{Source: "cli"}); err != nil {
		return err
	}

	var run chain.Run
	select {
	case run = <-finished:
	case <-ctx.Done():
		svc.chain.Cancel()
		run = <-finished
	}

	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(journal.FromRun(run))
	}
	if run.Outcome != chain.OutcomeCompleted {
		return fmt.Errorf("chain %s", run.Outcome)
	}
	return nil
}
