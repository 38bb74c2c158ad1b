// Package launcher opens the target application and brings the host
// application back to the foreground by running configured commands.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"dingwecker/config"
	"dingwecker/log"
)

// DefaultRestoreTimeout bounds each restore command.
const DefaultRestoreTimeout = 10 * time.Second

// Launcher runs the target and restore commands.
type Launcher struct {
	target  config.TargetConfig
	host    config.HostConfig
	timeout time.Duration

	lookPath func(file string) (string, error)
	spawn    func(path string, args []string) error
	run      func(ctx context.Context, path string, args []string) error
}

// New creates a Launcher for the given target and host settings.
func New(target config.TargetConfig, host config.HostConfig) *Launcher {
	return &Launcher{
		target:   target,
		host:     host,
		timeout:  DefaultRestoreTimeout,
		lookPath: exec.LookPath,
		spawn:    spawnDetached,
		run:      runToCompletion,
	}
}

// LaunchTargetApplication starts the target without waiting for it to exit.
func (l *Launcher) LaunchTargetApplication() error {
	name := strings.TrimSpace(l.target.Command)
	label := l.target.Name
	if label == "" {
		label = name
	}
	if name == "" {
		return &LaunchError{Kind: LaunchResolutionFailed, Target: label, Err: errors.New("no target command configured")}
	}

	path, err := l.lookPath(name)
	if err != nil {
		return &LaunchError{Kind: classifyLaunch(err), Target: label, Err: err}
	}

	if err := l.spawn(path, l.target.Args); err != nil {
		kind := LaunchResolutionFailed
		if errors.Is(err, fs.ErrPermission) {
			kind = LaunchPlatformDenied
		}
		return &LaunchError{Kind: kind, Target: label, Err: err}
	}

	log.Debug("target started", "path", path, "args", l.target.Args)
	return nil
}

// RestoreHostApplication runs the restore command and, if that fails, the
// fallback command.
func (l *Launcher) RestoreHostApplication() error {
	var strategies [][]string
	for _, argv := range [][]string{l.host.RestoreCommand, l.host.FallbackCommand} {
		if len(argv) > 0 && strings.TrimSpace(argv[0]) != "" {
			strategies = append(strategies, argv)
		}
	}
	if len(strategies) == 0 {
		return &RestoreError{Kind: RestoreNoRunningTask, Err: errors.New("no restore command configured")}
	}

	var errs []error
	denied := false
	for _, argv := range strategies {
		err := l.runStrategy(argv)
		if err == nil {
			return nil
		}
		log.Debug("restore strategy failed", "command", argv[0], "error", err)
		if errors.Is(err, fs.ErrPermission) {
			denied = true
		}
		errs = append(errs, fmt.Errorf("%s: %w", argv[0], err))
	}

	kind := RestoreNoRunningTask
	if denied {
		kind = RestorePlatformDenied
	}
	return &RestoreError{Kind: kind, Err: errors.Join(errs...)}
}

func (l *Launcher) runStrategy(argv []string) error {
	path, err := l.lookPath(argv[0])
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	return l.run(ctx, path, argv[1:])
}

func classifyLaunch(err error) LaunchErrorKind {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return LaunchNotInstalled
	case errors.Is(err, fs.ErrPermission):
		return LaunchPlatformDenied
	default:
		return LaunchResolutionFailed
	}
}

// spawnDetached starts path and reaps it in the background.
func spawnDetached(path string, args []string) error {
	cmd := exec.Command(path, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", path, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug("target exited", "path", path, "error", err)
		}
	}()
	return nil
}

func runToCompletion(ctx context.Context, path string, args []string) error {
	return exec.CommandContext(ctx, path, args...).Run()
}
