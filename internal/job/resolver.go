package job

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"jobctl/internal/apperrors"
	"jobctl/internal/configdoc"
)

// ResolverConfig tunes the config resolution step. Zero values use defaults.
type ResolverConfig struct {
	// JobName names the prefix the resolved document is published under.
	JobName string

	// ServiceURL is the remote address substituted for loopback endpoints.
	ServiceURL string

	// EndpointPaths are the dotted document paths checked for loopback
	// addresses. Defaults to the generation tool endpoints.
	EndpointPaths []string

	// RequiredSections are the top-level sections the document must contain.
	// Defaults to topics and output.
	RequiredSections []string
}

func (c ResolverConfig) withDefaults() ResolverConfig {
	if len(c.EndpointPaths) == 0 {
		c.EndpointPaths = []string{
			"generation.tools.spin_endpoint",
			"generation.tools.tools_endpoint",
		}
	}
	if len(c.RequiredSections) == 0 {
		c.RequiredSections = []string{"topics", "output"}
	}
	return c
}

// Resolver prepares a job configuration for submission: it fetches the
// source document, rewrites loopback endpoint references to the remote
// service address, validates required sections, and republishes the result
// under a fresh timestamped reference.
//
// Resolution is idempotent: resolving an already-resolved document produces
// byte-identical content. The resolver holds no state between calls and
// performs exactly one read and one write against the store per call.
type Resolver struct {
	store ObjectStore
	cfg   ResolverConfig
	clock Clock
	log   *slog.Logger
}

// NewResolver returns a resolver publishing under cfg.JobName.
func NewResolver(store ObjectStore, cfg ResolverConfig, clock Clock, log *slog.Logger) *Resolver {
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, cfg: cfg.withDefaults(), clock: clock, log: log}
}

// Resolve fetches the document at sourceRef, rewrites it for remote
// execution, and returns the reference of the published copy.
func (r *Resolver) Resolve(ctx context.Context, sourceRef string) (string, error) {
	data, err := r.store.Get(ctx, sourceRef)
	if err != nil {
		return "", fmt.Errorf("fetch config %s: %w", sourceRef, err)
	}

	doc, err := configdoc.Parse(data)
	if err != nil {
		return "", apperrors.ConfigMalformed(sourceRef, err)
	}

	for _, section := range r.cfg.RequiredSections {
		if !doc.Has(section) {
			return "", apperrors.ConfigMissingField(section)
		}
	}

	rewrites := 0
	for _, path := range r.cfg.EndpointPaths {
		value, ok := doc.Lookup(path)
		if !ok || !isLoopbackURL(value) {
			continue
		}
		rewritten := rewriteEndpoint(value, r.cfg.ServiceURL)
		doc.SetString(path, rewritten)
		rewrites++
		r.log.Debug("Rewrote endpoint",
			"path", path,
			"from", value,
			"to", rewritten)
	}

	out, err := doc.Encode()
	if err != nil {
		return "", apperrors.Internal("encode config", err)
	}

	ref := fmt.Sprintf("configs/%s/%s/config.yaml",
		r.cfg.JobName, r.clock.Now().UTC().Format(timestampLayout))
	if err := r.store.Put(ctx, ref, out, "application/yaml"); err != nil {
		return "", fmt.Errorf("publish config %s: %w", ref, err)
	}

	r.log.Info("Config resolved",
		"source", sourceRef,
		"ref", ref,
		"rewrites", rewrites)
	return ref, nil
}

// isLoopbackURL reports whether raw is an http(s) URL pointing at the local
// machine, i.e. a development placeholder that cannot be reached from the
// remote execution environment.
func isLoopbackURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

// rewriteEndpoint swaps the loopback origin of raw for serviceURL, keeping
// any path and query so nested routes survive the rewrite.
func rewriteEndpoint(raw, serviceURL string) string {
	base := strings.TrimRight(serviceURL, "/")
	u, err := url.Parse(raw)
	if err != nil {
		return base
	}
	if u.Path == "" && u.RawQuery == "" {
		return base
	}
	rewritten := base + u.Path
	if u.RawQuery != "" {
		rewritten += "?" + u.RawQuery
	}
	return rewritten
}
