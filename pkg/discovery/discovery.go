// Package discovery resolves skill ids to agent endpoints. Agents
// publish cards to the artifact registry under agents/<name>; discovery
// walks that namespace, indexes the advertised skills, and caches the
// result per instance.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/palletlabs/pallet/pkg/protocol"
	"github.com/palletlabs/pallet/pkg/registry"
)

// Agent is a discovered agent and the skills it serves.
type Agent struct {
	Name   string           `json:"name"`
	URL    string           `json:"url"`
	Tag    string           `json:"tag"`
	Skills []protocol.Skill `json:"skills"`
}

// SkillInfo is one skill with its serving agent, for listings.
type SkillInfo struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	AgentName   string `json:"agent_name"`
	AgentURL    string `json:"agent_url"`
}

// Registry discovers agents from the artifact registry.
type Registry struct {
	client     *registry.Client
	defaultTag string
	logger     *slog.Logger

	mu     sync.Mutex
	agents map[string]Agent // nil until the first walk
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultTag sets the tag preferred when an agent repo carries
// several. Defaults to v1.
func WithDefaultTag(tag string) Option {
	return func(d *Registry) {
		d.defaultTag = tag
	}
}

// WithLogger sets the discovery logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Registry) {
		d.logger = logger
	}
}

// NewRegistry creates registry-backed discovery.
func NewRegistry(client *registry.Client, opts ...Option) *Registry {
	d := &Registry{
		client:     client,
		defaultTag: "v1",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Agents returns all discovered agents, walking the registry on first
// use and serving the cached set afterwards.
func (d *Registry) Agents(ctx context.Context) (map[string]Agent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.agents != nil {
		return d.agents, nil
	}

	repos, err := d.client.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry catalog: %w", err)
	}

	agents := make(map[string]Agent)
	for _, repo := range repos {
		if !strings.HasPrefix(repo, registry.AgentRepoPrefix) {
			continue
		}
		name := repo[len(registry.AgentRepoPrefix):]

		tag, err := d.pickTag(ctx, repo)
		if err != nil {
			d.logger.Warn("skipping agent with unreadable tags", "agent", name, "error", err)
			continue
		}

		card, err := d.client.PullAgentCard(ctx, name, tag)
		if err != nil {
			d.logger.Warn("skipping agent with unreadable card", "agent", name, "tag", tag, "error", err)
			continue
		}

		agents[name] = Agent{
			Name:   card.Name,
			URL:    card.URL,
			Tag:    tag,
			Skills: card.Skills,
		}
	}

	d.logger.Info("discovered agents", "count", len(agents))
	d.agents = agents
	return agents, nil
}

// pickTag prefers the default tag, falling back to the first advertised.
func (d *Registry) pickTag(ctx context.Context, repo string) (string, error) {
	tags, err := d.client.Tags(ctx, repo)
	if err != nil {
		return "", err
	}
	for _, tag := range tags {
		if tag == d.defaultTag {
			return tag, nil
		}
	}
	if len(tags) > 0 {
		return tags[0], nil
	}
	return d.defaultTag, nil
}

// ResolveSkill finds the endpoint of the agent serving a skill id.
func (d *Registry) ResolveSkill(ctx context.Context, skillID string) (string, error) {
	agents, err := d.Agents(ctx)
	if err != nil {
		return "", err
	}
	for _, agent := range agents {
		for _, skill := range agent.Skills {
			if skill.ID == skillID {
				return agent.URL, nil
			}
		}
	}
	return "", fmt.Errorf("skill %q not advertised by any agent", skillID)
}

// Skills lists every skill advertised across all discovered agents.
func (d *Registry) Skills(ctx context.Context) ([]SkillInfo, error) {
	agents, err := d.Agents(ctx)
	if err != nil {
		return nil, err
	}
	var skills []SkillInfo
	for _, agent := range agents {
		for _, skill := range agent.Skills {
			skills = append(skills, SkillInfo{
				ID:          skill.ID,
				Description: skill.Description,
				AgentName:   agent.Name,
				AgentURL:    agent.URL,
			})
		}
	}
	return skills, nil
}

// Invalidate drops the cached agent set so the next call walks the
// registry again.
func (d *Registry) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agents = nil
}

// Static resolves skills from a fixed skill id to endpoint map. Useful
// for tests and fully local setups without a registry.
type Static map[string]string

// ResolveSkill looks the skill up in the map.
func (s Static) ResolveSkill(_ context.Context, skillID string) (string, error) {
	endpoint, ok := s[skillID]
	if !ok {
		return "", fmt.Errorf("skill %q not configured", skillID)
	}
	return endpoint, nil
}
