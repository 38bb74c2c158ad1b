package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dingwecker/alarm"
	"dingwecker/config"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change alarm times and delays",
}

var setMorningCmd = &cobra.Command{
	Use:   "morning HH:MM|off",
	Short: "Set the morning alarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSlot(cmd, alarm.SlotMorning, args[0])
	},
}

var setEveningCmd = &cobra.Command{
	Use:   "evening HH:MM|off",
	Short: "Set the evening alarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSlot(cmd, alarm.SlotEvening, args[0])
	},
}

var setAlarmCmd = &cobra.Command{
	Use:   "alarm HH:MM",
	Short: "Set the morning or evening alarm, chosen by the time of day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := config.ParseAlarmTime(args[0])
		if err != nil {
			return err
		}
		return setSlot(cmd, alarm.SlotFor(at), args[0])
	},
}

var setDelayCmd = &cobra.Command{
	Use:   "delay MIN MAX",
	Short: "Set the random delay range in seconds",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lo, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid MIN %q: %w", args[0], err)
		}
		hi, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid MAX %q: %w", args[1], err)
		}
		r := config.DelayRange{Min: lo, Max: hi}
		if err := r.Validate(); err != nil {
			return err
		}
		return updateConfig(cmd, func(cfg *config.Config) string {
			cfg.Delay = r
			return fmt.Sprintf("Delay set: %s", r)
		})
	},
}

var setReturnCmd = &cobra.Command{
	Use:   "return SECONDS",
	Short: "Set the delay before returning to this application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid SECONDS %q", args[0])
		}
		return updateConfig(cmd, func(cfg *config.Config) string {
			cfg.ReturnDelay = n
			return fmt.Sprintf("Return delay set: %ds", n)
		})
	},
}

var setRetriggerCmd = &cobra.Command{
	Use:       "retrigger reject|supersede",
	Short:     "Choose what a trigger does while a chain is running",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(config.RetriggerReject), string(config.RetriggerSupersede)},
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateConfig(cmd, func(cfg *config.Config) string {
			cfg.Retrigger = config.RetriggerPolicy(args[0])
			return fmt.Sprintf("Retrigger policy set: %s", args[0])
		})
	},
}

func init() {
	setCmd.AddCommand(setMorningCmd, setEveningCmd, setAlarmCmd, setDelayCmd, setReturnCmd, setRetriggerCmd)
	rootCmd.AddCommand(setCmd)
}

func setSlot(cmd *cobra.Command, slot alarm.Slot, value string) error {
	var at *config.AlarmTime
	if value != "off" {
		parsed, err := config.ParseAlarmTime(value)
		if err != nil {
			return err
		}
		at = &parsed
	}

	return updateConfig(cmd, func(cfg *config.Config) string {
		switch slot {
		case alarm.SlotMorning:
			cfg.Morning = at
		case alarm.SlotEvening:
			cfg.Evening = at
		}
		if at == nil {
			return fmt.Sprintf("Alarm cleared: %s", slot)
		}
		return fmt.Sprintf("Alarm set: %s", at)
	})
}

// updateConfig loads the configuration, applies change, saves and prints
// the confirmation change returns.
func updateConfig(cmd *cobra.Command, change func(cfg *config.Config) string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	msg := change(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
