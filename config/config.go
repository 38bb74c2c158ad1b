package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RetriggerPolicy decides what a trigger does while a chain is still running
type RetriggerPolicy string

const (
	RetriggerReject    RetriggerPolicy = "reject"
	RetriggerSupersede RetriggerPolicy = "supersede"
)

// DelayRange is an inclusive range of whole seconds used to randomize the
// first countdown of a chain.
type DelayRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ErrInvalidRange is matched by errors.Is for any range with Min < 0 or Max < Min.
var ErrInvalidRange = errors.New("invalid delay range")

// Validate reports whether the range can be sampled.
func (r DelayRange) Validate() error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

func (r DelayRange) String() string {
	return fmt.Sprintf("%d-%ds", r.Min, r.Max)
}

// TargetConfig describes the application opened when the countdown ends.
type TargetConfig struct {
	Name    string   `yaml:"name"`    // shown in countdown messages
	Command string   `yaml:"command"` // executable, resolved via PATH
	Args    []string `yaml:"args,omitempty"`
}

// HostConfig holds the commands that bring this application back to the foreground.
type HostConfig struct {
	RestoreCommand  []string `yaml:"restore_command"`
	FallbackCommand []string `yaml:"fallback_command,omitempty"`
}

// ChimeConfig controls the tone played when an alarm slot fires.
type ChimeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Volume  int    `yaml:"volume"`  // 1-100
	Pattern string `yaml:"pattern"` // tone pattern, see package tone
}

// MQTTConfig enables mirroring of countdown messages to a broker.
type MQTTConfig struct {
	Broker string `yaml:"broker"` // empty disables MQTT
	Topic  string `yaml:"topic"`
}

// DisplayConfig holds TUI settings.
type DisplayConfig struct {
	Hour24Format bool   `yaml:"hour_24_format"`
	ShowSeconds  bool   `yaml:"show_seconds"`
	FontName     string `yaml:"font_name"` // go-figure font for the ASCII clock
	Brightness   int    `yaml:"brightness"` // 1-10
}

// Config represents the application configuration
type Config struct {
	Morning *AlarmTime `yaml:"morning,omitempty"`
	Evening *AlarmTime `yaml:"evening,omitempty"`

	Delay       DelayRange      `yaml:"delay"`
	ReturnDelay int             `yaml:"return_delay"` // seconds, not randomized
	Retrigger   RetriggerPolicy `yaml:"retrigger"`

	Target TargetConfig `yaml:"target"`
	Host   HostConfig   `yaml:"host"`

	Chime   ChimeConfig   `yaml:"chime"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Journal JournalConfig `yaml:"journal"`
	Display DisplayConfig `yaml:"display"`

	path string
}

// HTTPConfig holds the address of the local control API.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables the API
}

// JournalConfig holds the location of the run history database.
type JournalConfig struct {
	Path string `yaml:"path"` // empty disables the journal
}

// DefaultChimePattern is a short rising triple beep, repeated.
const DefaultChimePattern = "loop 3 { tone NOTE_A5 150ms delay 100ms tone NOTE_C6 150ms delay 100ms tone NOTE_E6 300ms delay 600ms }"

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Delay:       DelayRange{Min: 5, Max: 4 * 60},
		ReturnDelay: 5,
		Retrigger:   RetriggerReject,
		Target: TargetConfig{
			Name:    "DingTalk",
			Command: "dingtalk",
		},
		Host: HostConfig{
			RestoreCommand:  []string{"wmctrl", "-a", "dingwecker"},
			FallbackCommand: []string{"xdotool", "search", "--name", "dingwecker", "windowactivate"},
		},
		Chime: ChimeConfig{
			Enabled: true,
			Volume:  50,
			Pattern: DefaultChimePattern,
		},
		MQTT: MQTTConfig{
			Topic: "dingwecker/notify",
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8087",
		},
		Journal: JournalConfig{
			Path: filepath.Join(Dir(), "journal.db"),
		},
		Display: DisplayConfig{
			Hour24Format: true,
			ShowSeconds:  true,
			FontName:     "doom",
			Brightness:   5,
		},
	}
}

// Dir returns the path to ~/.dingwecker.
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".dingwecker")
	}
	return filepath.Join(homeDir, ".dingwecker")
}

// DefaultPath returns the path of the configuration file.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load loads configuration from the default path
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the configuration at path, applies environment overrides
// and validates the result. A missing file is created with defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if saveErr := cfg.Save(); saveErr != nil {
			return cfg, fmt.Errorf("saving default config: %w", saveErr)
		}
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to its file
func (c *Config) Save() error {
	path := c.Path()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Range implements the delay range source consumed by the chain.
// The range is returned as stored; the chain rejects invalid ranges.
func (c *Config) Range() DelayRange {
	return c.Delay
}

// Validate checks everything except the delay range.
func (c *Config) Validate() error {
	for name, at := range map[string]*AlarmTime{"morning": c.Morning, "evening": c.Evening} {
		if at == nil {
			continue
		}
		if err := at.Validate(); err != nil {
			return fmt.Errorf("%s alarm: %w", name, err)
		}
	}
	if c.ReturnDelay < 0 {
		return fmt.Errorf("return_delay must not be negative, got %d", c.ReturnDelay)
	}
	switch c.Retrigger {
	case RetriggerReject, RetriggerSupersede:
	default:
		return fmt.Errorf("unknown retrigger policy %q (want %q or %q)", c.Retrigger, RetriggerReject, RetriggerSupersede)
	}
	if c.Chime.Volume < 0 || c.Chime.Volume > 100 {
		return fmt.Errorf("chime volume must be 0-100, got %d", c.Chime.Volume)
	}
	return nil
}

// applyEnv overrides file values with DINGWECKER_* environment variables.
func (c *Config) applyEnv() error {
	ints := []struct {
		key string
		dst *int
	}{
		{"DINGWECKER_MIN_DELAY", &c.Delay.Min},
		{"DINGWECKER_MAX_DELAY", &c.Delay.Max},
		{"DINGWECKER_RETURN_DELAY", &c.ReturnDelay},
	}
	for _, v := range ints {
		s := os.Getenv(v.key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", v.key, err)
		}
		*v.dst = n
	}

	if broker := os.Getenv("DINGWECKER_MQTT_BROKER"); broker != "" {
		c.MQTT.Broker = broker
	}
	if addr, ok := os.LookupEnv("DINGWECKER_HTTP_ADDR"); ok {
		c.HTTP.Addr = addr
	}
	return nil
}

// FormatTime formats time according to 12/24 hour setting
func (c *Config) FormatTime(t time.Time) string {
	if c.Display.Hour24Format {
		if c.Display.ShowSeconds {
			return t.Format("15:04:05")
		}
		return t.Format("15:04")
	}
	if c.Display.ShowSeconds {
		return t.Format("3:04:05 PM")
	}
	return t.Format("3:04 PM")
}
