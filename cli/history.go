package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dingwecker/journal"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent chain runs",
	Args:  cobra.NoArgs,
	RunE:  showHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func showHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Journal.Path == "" {
		return errors.New("run journal is disabled (journal.path is empty)")
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if entries == nil {
			entries = []journal.Entry{}
		}
		return json.NewEncoder(out).Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSOURCE\tDELAY\tOUTCOME\tERRORS")
	for _, e := range entries {
		source := e.Source
		if e.Slot != "" {
			source += "/" + e.Slot
		}
		fmt.Fprintf(w, "%s\t%s\t%ds+%ds\t%s\t%s\n",
			e.StartedAt.Local().Format(time.DateTime),
			source,
			e.InitialDelay, e.ReturnDelay,
			e.Outcome,
			joinErrors(e.LaunchError, e.RestoreError),
		)
	}
	return w.Flush()
}

func joinErrors(launch, restore string) string {
	switch {
	case launch != "" && restore != "":
		return "launch: " + launch + "; restore: " + restore
	case launch != "":
		return "launch: " + launch
	case restore != "":
		return "restore: " + restore
	}
	return "-"
}
