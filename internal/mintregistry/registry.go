// Package mintregistry classifies endpoint contexts into protocols and holds
// the enabled/disabled registry consulted at orchestration time.
package mintregistry

import (
	"sort"
	"strings"
	"sync"
)

// Protocol tags the custodial silo a swap side lives on.
type Protocol string

const (
	ProtocolFedimint  Protocol = "fedimint"
	ProtocolCashu     Protocol = "cashu"
	ProtocolNative    Protocol = "satnam-native"
	ProtocolLightning Protocol = "lightning"
)

// Valid reports whether p is a known protocol tag.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolFedimint, ProtocolCashu, ProtocolNative, ProtocolLightning:
		return true
	}
	return false
}

// Classify maps an endpoint string to a protocol by keyword. Federation and
// guardian markers mean Fedimint, native/family markers mean the platform
// mint, and anything else is treated as an external Cashu mint. Lightning is
// never inferred from a URL; callers pass it explicitly since Lightning has
// no mint endpoint.
func Classify(endpoint string) Protocol {
	lower := strings.ToLower(endpoint)
	switch {
	case strings.Contains(lower, "fedimint"),
		strings.Contains(lower, "federation"),
		strings.Contains(lower, "guardian"):
		return ProtocolFedimint
	case strings.Contains(lower, "satnam"),
		strings.Contains(lower, "family"),
		strings.Contains(lower, "native"):
		return ProtocolNative
	default:
		return ProtocolCashu
	}
}

// FedimintConfig carries federation connection details.
type FedimintConfig struct {
	FederationURL string   `json:"federation_url"`
	GuardianURLs  []string `json:"guardian_urls,omitempty"`
	Threshold     int      `json:"threshold,omitempty"`
}

// CashuConfig carries the external mint list and default.
type CashuConfig struct {
	MintURLs    []string `json:"mint_urls,omitempty"`
	DefaultMint string   `json:"default_mint"`
}

// NativeConfig carries the platform mint URL.
type NativeConfig struct {
	URL string `json:"url"`
}

// Entry is the registry row for one protocol.
type Entry struct {
	Protocol  Protocol        `json:"protocol"`
	Enabled   bool            `json:"enabled"`
	Endpoints []string        `json:"endpoints,omitempty"`
	Fedimint  *FedimintConfig `json:"fedimint,omitempty"`
	Cashu     *CashuConfig    `json:"cashu,omitempty"`
	Native    *NativeConfig   `json:"native,omitempty"`
}

// Registry is read-mostly global state. Enable/disable updates become visible
// to in-flight swaps at their next state transition; already-committed
// transitions are never revisited.
type Registry struct {
	mu      sync.RWMutex
	entries map[Protocol]Entry
}

// NewRegistry builds a registry with all four protocols enabled.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{entries: make(map[Protocol]Entry)}
	for _, p := range []Protocol{ProtocolFedimint, ProtocolCashu, ProtocolNative, ProtocolLightning} {
		r.entries[p] = Entry{Protocol: p, Enabled: true}
	}
	for _, e := range entries {
		if e.Protocol.Valid() {
			r.entries[e.Protocol] = e
		}
	}
	return r
}

// SetEnabled flips a protocol's availability.
func (r *Registry) SetEnabled(p Protocol, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[p]
	if !ok {
		entry = Entry{Protocol: p}
	}
	entry.Enabled = enabled
	r.entries[p] = entry
}

// Enabled reports whether the protocol is currently available.
func (r *Registry) Enabled(p Protocol) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[p].Enabled
}

// ListEnabled returns the enabled protocols in stable order.
func (r *Registry) ListEnabled() []Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Protocol, 0, len(r.entries))
	for p, e := range r.entries {
		if e.Enabled {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns a copy of every registry entry in stable order.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Protocol < out[j].Protocol })
	return out
}
