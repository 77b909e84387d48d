package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/palletlabs/pallet/pkg/protocol"
)

// SkillResolver maps a skill id to an agent endpoint. Implemented by the
// discovery layer; the engine only sees this interface.
type SkillResolver interface {
	ResolveSkill(ctx context.Context, skillID string) (string, error)
}

// Invoker performs the remote skill call. *protocol.Client satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, endpoint, skillID string, params map[string]any) (any, error)
}

// Dispatcher resolves skills to endpoints and performs invocations. The
// endpoint cache is scoped to the dispatcher instance, so concurrent
// independent runs stay isolated.
type Dispatcher struct {
	resolver SkillResolver
	invoker  Invoker
	logger   *slog.Logger

	mu        sync.Mutex
	endpoints map[string]string
}

// NewDispatcher creates a dispatcher over the given resolver and invoker.
func NewDispatcher(resolver SkillResolver, invoker Invoker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		resolver:  resolver,
		invoker:   invoker,
		logger:    logger,
		endpoints: make(map[string]string),
	}
}

// ResolveEndpoint returns the agent endpoint serving a skill. The first
// resolution per skill id is memoized; later steps using the same skill
// reuse the cached endpoint without another discovery round-trip.
func (d *Dispatcher) ResolveEndpoint(ctx context.Context, skillID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if endpoint, ok := d.endpoints[skillID]; ok {
		return endpoint, nil
	}

	endpoint, err := d.resolver.ResolveSkill(ctx, skillID)
	if err != nil {
		return "", &SkillNotFoundError{Skill: skillID, Err: err}
	}
	if endpoint == "" {
		return "", &SkillNotFoundError{Skill: skillID}
	}

	d.endpoints[skillID] = endpoint
	d.logger.Debug("resolved skill endpoint", "skill", skillID, "endpoint", endpoint)
	return endpoint, nil
}

// Dispatch resolves the step's skill and invokes it with the already
// resolved params, bounded by the step's timeout. No retries.
func (d *Dispatcher) Dispatch(ctx context.Context, step *Step, params map[string]any) (any, error) {
	endpoint, err := d.ResolveEndpoint(ctx, step.Skill)
	if err != nil {
		return nil, err
	}

	timeout := step.TimeoutDuration()
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := d.invoker.Invoke(callCtx, endpoint, step.Skill, params)
	if err != nil {
		return nil, d.classify(ctx, step, err)
	}
	return result, nil
}

// classify maps transport-layer errors onto the engine's error taxonomy.
func (d *Dispatcher) classify(parent context.Context, step *Step, err error) error {
	var remote *protocol.RemoteError
	if errors.As(err, &remote) {
		return &RemoteSkillError{Skill: step.Skill, Code: remote.Code, Message: remote.Message}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		// The per-call deadline expired. A cancelled parent (parallel
		// sibling failure) propagates unchanged instead.
		if parent.Err() == nil || errors.Is(parent.Err(), context.DeadlineExceeded) {
			return &StepTimeoutError{StepID: step.ID, Timeout: step.TimeoutDuration()}
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return &RemoteCallFailedError{Skill: step.Skill, Err: err}
}
