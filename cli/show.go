package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dingwecker/alarm"
	"dingwecker/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configuration and upcoming alarms",
	Args:  cobra.NoArgs,
	RunE:  showConfig,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

type showJSON struct {
	Morning     string               `json:"morning,omitempty"`
	Evening     string               `json:"evening,omitempty"`
	Next        map[string]time.Time `json:"next"`
	DelayMin    int                  `json:"delay_min"`
	DelayMax    int                  `json:"delay_max"`
	ReturnDelay int                  `json:"return_delay"`
	Retrigger   string               `json:"retrigger"`
	Target      string               `json:"target"`
	ConfigPath  string               `json:"config_path"`
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	schedule := alarm.NewManager(cfg).Schedule()

	if jsonOut {
		out := showJSON{
			Morning:     slotString(cfg.Morning),
			Evening:     slotString(cfg.Evening),
			Next:        map[string]time.Time{},
			DelayMin:    cfg.Delay.Min,
			DelayMax:    cfg.Delay.Max,
			ReturnDelay: cfg.ReturnDelay,
			Retrigger:   string(cfg.Retrigger),
			Target:      cfg.Target.Name,
			ConfigPath:  cfg.Path(),
		}
		for slot, at := range schedule {
			out.Next[string(slot)] = at
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, slot := range alarm.Slots {
		at := cfg.Morning
		if slot == alarm.SlotEvening {
			at = cfg.Evening
		}
		if at == nil {
			fmt.Fprintf(w, "%s\toff\t\n", slot)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\tnext %s\n", slot, at, schedule[slot].Format("Mon Jan 2 15:04"))
	}
	fmt.Fprintf(w, "delay\t%s\t\n", cfg.Delay)
	fmt.Fprintf(w, "return\t%ds\t\n", cfg.ReturnDelay)
	fmt.Fprintf(w, "retrigger\t%s\t\n", cfg.Retrigger)
	fmt.Fprintf(w, "target\t%s\t%s\n", cfg.Target.Name, cfg.Target.Command)
	fmt.Fprintf(w, "config\t%s\t\n", cfg.Path())
	return w.Flush()
}

func slotString(at *config.AlarmTime) string {
	if at == nil {
		return ""
	}
	return at.String()
}
