package workflow

import (
	"fmt"
	"time"
)

// ConfigurationError reports a malformed workflow document: missing
// required fields for a step type, an unknown step type, or a missing
// branch list. It is raised before any dispatch for the offending step.
type ConfigurationError struct {
	StepID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("invalid workflow configuration: step %q: %s", e.StepID, e.Reason)
	}
	return fmt.Sprintf("invalid workflow configuration: %s", e.Reason)
}

// SkillNotFoundError reports that discovery could not map a skill id to
// an agent endpoint.
type SkillNotFoundError struct {
	Skill string
	Err   error
}

func (e *SkillNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no agent found for skill %q: %v", e.Skill, e.Err)
	}
	return fmt.Sprintf("no agent found for skill %q", e.Skill)
}

func (e *SkillNotFoundError) Unwrap() error { return e.Err }

// RemoteSkillError reports an application-level error returned by the
// invoked skill itself. Message is passed through from the remote payload.
type RemoteSkillError struct {
	Skill   string
	Code    int
	Message string
}

func (e *RemoteSkillError) Error() string {
	return fmt.Sprintf("skill %q returned error %d: %s", e.Skill, e.Code, e.Message)
}

// StepTimeoutError reports that a step's remote invocation exceeded its
// configured timeout.
type StepTimeoutError struct {
	StepID  string
	Timeout time.Duration
}

func (e *StepTimeoutError) Error() string {
	return fmt.Sprintf("step %q timed out after %s", e.StepID, e.Timeout)
}

// RemoteCallFailedError reports a transport-level failure: connection
// refused, unexpected status, or a malformed response.
type RemoteCallFailedError struct {
	Skill string
	Err   error
}

func (e *RemoteCallFailedError) Error() string {
	return fmt.Sprintf("remote call for skill %q failed: %v", e.Skill, e.Err)
}

func (e *RemoteCallFailedError) Unwrap() error { return e.Err }
