// Package registry implements a client for the OCI distribution API used
// as the artifact store: workflows live under workflows/<id>:<version>
// and agent cards under agents/<name>:<tag>. An artifact is pulled by
// fetching the manifest for a tag and downloading its first layer blob.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/palletlabs/pallet/internal/httpclient"
	"github.com/palletlabs/pallet/pkg/protocol"
)

const (
	// ManifestMediaType is sent as the Accept header on manifest requests.
	ManifestMediaType = "application/vnd.oci.image.manifest.v1+json"

	// WorkflowRepoPrefix and AgentRepoPrefix partition the registry
	// namespace.
	WorkflowRepoPrefix = "workflows/"
	AgentRepoPrefix    = "agents/"
)

// ErrNotFound is returned when a repository, tag, or blob does not exist.
var ErrNotFound = errors.New("not found in registry")

// Config configures a registry client.
type Config struct {
	// URL is the registry base URL, e.g. http://localhost:5000.
	URL string `yaml:"url"`

	// Timeout bounds each registry request.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries bounds retries on transient registry failures.
	MaxRetries int `yaml:"max_retries"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:5000"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Descriptor references a blob in a manifest.
type Descriptor struct {
	MediaType string `json:"mediaType"`
	Digest    string `json:"digest"`
	Size      int64  `json:"size"`
}

// Manifest is an OCI image manifest.
type Manifest struct {
	SchemaVersion int          `json:"schemaVersion"`
	MediaType     string       `json:"mediaType"`
	Config        Descriptor   `json:"config"`
	Layers        []Descriptor `json:"layers"`
}

type catalogResponse struct {
	Repositories []string `json:"repositories"`
}

type tagsResponse struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// Client talks to one registry.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

// NewClient creates a registry client.
func NewClient(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
	}
}

// Ping reports whether the registry answers the distribution API root.
// A 401 still counts as alive.
func (c *Client) Ping(ctx context.Context) bool {
	resp, err := c.http.Get(ctx, c.baseURL+"/v2/")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusUnauthorized
}

// Catalog lists all repositories in the registry.
func (c *Client) Catalog(ctx context.Context) ([]string, error) {
	var result catalogResponse
	if err := c.getJSON(ctx, c.baseURL+"/v2/_catalog", &result); err != nil {
		return nil, err
	}
	return result.Repositories, nil
}

// Tags lists all tags for a repository.
func (c *Client) Tags(ctx context.Context, repo string) ([]string, error) {
	var result tagsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v2/%s/tags/list", c.baseURL, repo), &result); err != nil {
		return nil, err
	}
	return result.Tags, nil
}

// Manifest fetches the manifest for a repo and reference (tag or digest).
func (c *Client) Manifest(ctx context.Context, repo, ref string) (*Manifest, error) {
	url := fmt.Sprintf("%s/v2/%s/manifests/%s", c.baseURL, repo, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", ManifestMediaType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest %s:%s: %w", repo, ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("manifest %s:%s: %w", repo, ref, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s fetching manifest %s:%s", resp.Status, repo, ref)
	}

	var manifest Manifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s:%s: %w", repo, ref, err)
	}
	return &manifest, nil
}

// Blob downloads a blob by digest.
func (c *Client) Blob(ctx context.Context, repo, digest string) ([]byte, error) {
	resp, err := c.http.Get(ctx, fmt.Sprintf("%s/v2/%s/blobs/%s", c.baseURL, repo, digest))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob %s@%s: %w", repo, digest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("blob %s@%s: %w", repo, digest, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s fetching blob %s@%s", resp.Status, repo, digest)
	}
	return io.ReadAll(resp.Body)
}

// PullArtifact fetches the first layer blob of the manifest at repo:ref.
// Artifacts pushed here carry their payload as a single layer.
func (c *Client) PullArtifact(ctx context.Context, repo, ref string) ([]byte, error) {
	manifest, err := c.Manifest(ctx, repo, ref)
	if err != nil {
		return nil, err
	}
	if len(manifest.Layers) == 0 {
		return nil, fmt.Errorf("artifact %s:%s has no layers", repo, ref)
	}
	return c.Blob(ctx, repo, manifest.Layers[0].Digest)
}

// PullWorkflow fetches the raw workflow document stored under
// workflows/<id>:<version>.
func (c *Client) PullWorkflow(ctx context.Context, workflowID, version string) ([]byte, error) {
	if version == "" {
		version = "v1"
	}
	return c.PullArtifact(ctx, WorkflowRepoPrefix+workflowID, version)
}

// PullAgentCard fetches and parses the agent card stored under
// agents/<name>:<tag>.
func (c *Client) PullAgentCard(ctx context.Context, name, tag string) (*protocol.AgentCard, error) {
	if tag == "" {
		tag = "v1"
	}
	data, err := c.PullArtifact(ctx, AgentRepoPrefix+name, tag)
	if err != nil {
		return nil, err
	}

	var card protocol.AgentCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("failed to parse agent card for %s: %w", name, err)
	}
	if card.Name == "" {
		card.Name = name
	}
	return &card, nil
}

// getJSON fetches a URL and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to query registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
