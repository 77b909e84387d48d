package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/palletlabs/pallet/pkg/protocol"
	"github.com/palletlabs/pallet/pkg/registry"
)

// agentRegistry serves a catalog of agent cards over the distribution API.
type agentRegistry struct {
	cards        map[string]map[string]*protocol.AgentCard // name -> tag -> card
	catalogCalls atomic.Int32
}

func (a *agentRegistry) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/_catalog" {
			a.catalogCalls.Add(1)
			var repos []string
			for name := range a.cards {
				repos = append(repos, registry.AgentRepoPrefix+name)
			}
			repos = append(repos, "workflows/some-workflow")
			json.NewEncoder(w).Encode(map[string]any{"repositories": repos})
			return
		}
		for name, tags := range a.cards {
			prefix := "/v2/" + registry.AgentRepoPrefix + name
			if r.URL.Path == prefix+"/tags/list" {
				var names []string
				for tag := range tags {
					names = append(names, tag)
				}
				json.NewEncoder(w).Encode(map[string]any{"name": name, "tags": names})
				return
			}
			for tag, card := range tags {
				digest := fmt.Sprintf("sha256:%s-%s", name, tag)
				switch r.URL.Path {
				case prefix + "/manifests/" + tag:
					json.NewEncoder(w).Encode(registry.Manifest{
						SchemaVersion: 2,
						Layers:        []registry.Descriptor{{Digest: digest}},
					})
					return
				case prefix + "/blobs/" + digest:
					json.NewEncoder(w).Encode(card)
					return
				}
			}
		}
		http.NotFound(w, r)
	})
	return mux
}

func newTestDiscovery(t *testing.T, a *agentRegistry, opts ...Option) *Registry {
	t.Helper()
	srv := httptest.NewServer(a.handler())
	t.Cleanup(srv.Close)
	client := registry.NewClient(registry.Config{URL: srv.URL, MaxRetries: 1})
	return NewRegistry(client, opts...)
}

func twoAgents() *agentRegistry {
	return &agentRegistry{cards: map[string]map[string]*protocol.AgentCard{
		"plan": {"v1": {
			Name:   "plan",
			URL:    "http://localhost:8001",
			Skills: []protocol.Skill{{ID: "create_plan", Description: "Plan a task"}},
		}},
		"build": {"v1": {
			Name:   "build",
			URL:    "http://localhost:8002",
			Skills: []protocol.Skill{{ID: "write_code"}, {ID: "review_code"}},
		}},
	}}
}

func TestRegistry_Agents(t *testing.T) {
	d := newTestDiscovery(t, twoAgents())

	agents, err := d.Agents(context.Background())
	if err != nil {
		t.Fatalf("Agents() error = %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("len(agents) = %d, want 2", len(agents))
	}
	if agents["plan"].URL != "http://localhost:8001" {
		t.Errorf("plan URL = %v", agents["plan"].URL)
	}
	if len(agents["build"].Skills) != 2 {
		t.Errorf("build skills = %v", agents["build"].Skills)
	}
}

func TestRegistry_AgentsCached(t *testing.T) {
	reg := twoAgents()
	d := newTestDiscovery(t, reg)

	for i := 0; i < 3; i++ {
		if _, err := d.Agents(context.Background()); err != nil {
			t.Fatalf("Agents() error = %v", err)
		}
	}
	if got := reg.catalogCalls.Load(); got != 1 {
		t.Errorf("catalog calls = %d, want 1", got)
	}
}

func TestRegistry_InvalidateForcesRewalk(t *testing.T) {
	reg := twoAgents()
	d := newTestDiscovery(t, reg)

	_, _ = d.Agents(context.Background())
	d.Invalidate()
	_, _ = d.Agents(context.Background())

	if got := reg.catalogCalls.Load(); got != 2 {
		t.Errorf("catalog calls = %d, want 2", got)
	}
}

func TestRegistry_ResolveSkill(t *testing.T) {
	d := newTestDiscovery(t, twoAgents())

	endpoint, err := d.ResolveSkill(context.Background(), "write_code")
	if err != nil {
		t.Fatalf("ResolveSkill() error = %v", err)
	}
	if endpoint != "http://localhost:8002" {
		t.Errorf("endpoint = %v, want http://localhost:8002", endpoint)
	}

	if _, err := d.ResolveSkill(context.Background(), "paint_house"); err == nil {
		t.Error("ResolveSkill(paint_house) error = nil, want error")
	}
}

func TestRegistry_Skills(t *testing.T) {
	d := newTestDiscovery(t, twoAgents())

	skills, err := d.Skills(context.Background())
	if err != nil {
		t.Fatalf("Skills() error = %v", err)
	}
	if len(skills) != 3 {
		t.Errorf("len(skills) = %d, want 3", len(skills))
	}
}

func TestRegistry_PrefersDefaultTag(t *testing.T) {
	reg := &agentRegistry{cards: map[string]map[string]*protocol.AgentCard{
		"plan": {
			"v1":     {Name: "plan", URL: "http://old:8001"},
			"stable": {Name: "plan", URL: "http://stable:8001"},
		},
	}}
	d := newTestDiscovery(t, reg, WithDefaultTag("stable"))

	agents, err := d.Agents(context.Background())
	if err != nil {
		t.Fatalf("Agents() error = %v", err)
	}
	if agents["plan"].Tag != "stable" {
		t.Errorf("tag = %v, want stable", agents["plan"].Tag)
	}
	if agents["plan"].URL != "http://stable:8001" {
		t.Errorf("URL = %v", agents["plan"].URL)
	}
}

func TestRegistry_SkipsUnreadableCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/_catalog":
			json.NewEncoder(w).Encode(map[string]any{"repositories": []string{"agents/ghost"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := registry.NewClient(registry.Config{URL: srv.URL, MaxRetries: 1})
	d := NewRegistry(client)

	agents, err := d.Agents(context.Background())
	if err != nil {
		t.Fatalf("Agents() error = %v", err)
	}
	if len(agents) != 0 {
		t.Errorf("agents = %v, want none", agents)
	}
}

func TestStatic_ResolveSkill(t *testing.T) {
	s := Static{"create_plan": "http://localhost:8001"}

	endpoint, err := s.ResolveSkill(context.Background(), "create_plan")
	if err != nil {
		t.Fatalf("ResolveSkill() error = %v", err)
	}
	if endpoint != "http://localhost:8001" {
		t.Errorf("endpoint = %v", endpoint)
	}

	if _, err := s.ResolveSkill(context.Background(), "unknown"); err == nil {
		t.Error("ResolveSkill(unknown) error = nil, want error")
	}
}
