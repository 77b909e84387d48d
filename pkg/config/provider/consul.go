package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
)

// ConsulProvider loads config from a Consul KV key.
type ConsulProvider struct {
	kv  *api.KV
	key string

	mu        sync.Mutex
	lastIndex uint64
}

// NewConsulProvider creates a provider reading from Consul. The first
// endpoint is used as the agent address; empty endpoints fall back to
// the consul/api defaults.
func NewConsulProvider(endpoints []string, key string) (*ConsulProvider, error) {
	cfg := api.DefaultConfig()
	if len(endpoints) > 0 {
		cfg.Address = endpoints[0]
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ConsulProvider{kv: client.KV(), key: key}, nil
}

// Type returns TypeConsul.
func (p *ConsulProvider) Type() Type {
	return TypeConsul
}

// Load reads the config key from the KV store.
func (p *ConsulProvider) Load(ctx context.Context) ([]byte, error) {
	pair, meta, err := p.kv.Get(p.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to read consul key %s: %w", p.key, err)
	}
	if pair == nil {
		return nil, fmt.Errorf("consul key %s not found", p.key)
	}

	p.mu.Lock()
	p.lastIndex = meta.LastIndex
	p.mu.Unlock()

	return pair.Value, nil
}

// Watch uses Consul blocking queries to signal key changes.
func (p *ConsulProvider) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			if ctx.Err() != nil {
				return
			}

			p.mu.Lock()
			index := p.lastIndex
			p.mu.Unlock()

			opts := &api.QueryOptions{
				WaitIndex: index,
				WaitTime:  5 * time.Minute,
			}
			pair, meta, err := p.kv.Get(p.key, opts.WithContext(ctx))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("consul watch error", "key", p.key, "error", err)
				time.Sleep(time.Second)
				continue
			}
			if pair == nil || meta.LastIndex == index {
				continue
			}

			p.mu.Lock()
			p.lastIndex = meta.LastIndex
			p.mu.Unlock()

			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()

	return ch, nil
}

// Close is a no-op; the consul client holds no persistent connection.
func (p *ConsulProvider) Close() error {
	return nil
}

var _ Provider = (*ConsulProvider)(nil)
