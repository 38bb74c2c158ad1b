package config

import (
	"fmt"
	"strconv"
	"strings"
)

// AlarmTime is a time of day, minute precision.
type AlarmTime struct {
	Hour   int `yaml:"hour"`   // 0-23
	Minute int `yaml:"minute"` // 0-59
}

// ParseAlarmTime parses "HH:MM" (a leading single-digit hour is accepted).
func ParseAlarmTime(s string) (AlarmTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return AlarmTime{}, fmt.Errorf("invalid alarm time %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return AlarmTime{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 {
		return AlarmTime{}, fmt.Errorf("invalid minute in %q", s)
	}

	at := AlarmTime{Hour: hour, Minute: minute}
	if err := at.Validate(); err != nil {
		return AlarmTime{}, err
	}
	return at, nil
}

// Validate checks the hour and minute bounds.
func (a AlarmTime) Validate() error {
	if a.Hour < 0 || a.Hour > 23 {
		return fmt.Errorf("hour %d out of range 0-23", a.Hour)
	}
	if a.Minute < 0 || a.Minute > 59 {
		return fmt.Errorf("minute %d out of range 0-59", a.Minute)
	}
	return nil
}

func (a AlarmTime) String() string {
	return fmt.Sprintf("%02d:%02d", a.Hour, a.Minute)
}
