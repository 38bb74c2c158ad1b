package launcher

import "fmt"

// LaunchErrorKind classifies why the target application did not open.
type LaunchErrorKind int

const (
	LaunchNotInstalled LaunchErrorKind = iota
	LaunchResolutionFailed
	LaunchPlatformDenied
)

func (k LaunchErrorKind) String() string {
	switch k {
	case LaunchNotInstalled:
		return "not installed"
	case LaunchResolutionFailed:
		return "resolution failed"
	case LaunchPlatformDenied:
		return "denied by platform"
	}
	return fmt.Sprintf("LaunchErrorKind(%d)", int(k))
}

// LaunchError is returned by LaunchTargetApplication.
type LaunchError struct {
	Kind   LaunchErrorKind
	Target string
	Err    error
}

func (e *LaunchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Target, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Target, e.Kind, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// RestoreErrorKind classifies why the host application was not brought back.
type RestoreErrorKind int

const (
	RestoreNoRunningTask RestoreErrorKind = iota
	RestorePlatformDenied
)

func (k RestoreErrorKind) String() string {
	switch k {
	case RestoreNoRunningTask:
		return "no running task"
	case RestorePlatformDenied:
		return "denied by platform"
	}
	return fmt.Sprintf("RestoreErrorKind(%d)", int(k))
}

// RestoreError is returned by RestoreHostApplication.
type RestoreError struct {
	Kind RestoreErrorKind
	Err  error
}

func (e *RestoreError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }
