// Package topology supplies the token-to-host ring assignment the
// routing core builds its ring from. Suppliers are pluggable: a static
// map for tests and fixed deployments, a YAML file, an HTTP topology
// endpoint, or a Postgres metadata table.
package topology

import (
	"context"
	"errors"

	"github.com/fakeNetflix/dyno/internal/model"
)

// ErrTokenNotFound indicates the supplier has no token for a host
var ErrTokenNotFound = errors.New("topology: no token for host")

// TokenMapSupplier provides the current token assignment for a set of
// hosts. GetTokens restricts the result to the hosts passed in, so a
// topology rebuild only sees tokens for pools it actually owns.
type TokenMapSupplier interface {
	GetTokens(ctx context.Context, activeHosts []*model.Host) ([]model.HostToken, error)
	GetTokenForHost(ctx context.Context, host *model.Host, activeHosts []*model.Host) (model.HostToken, error)
}

// StaticSupplier serves a fixed token map from memory
type StaticSupplier struct {
	tokens []model.HostToken
}

// NewStaticSupplier creates a supplier over a fixed assignment
func NewStaticSupplier(tokens []model.HostToken) *StaticSupplier {
	return &StaticSupplier{tokens: tokens}
}

// GetTokens returns the assignments for the given hosts
func (s *StaticSupplier) GetTokens(_ context.Context, activeHosts []*model.Host) ([]model.HostToken, error) {
	return filterTokens(s.tokens, activeHosts), nil
}

// GetTokenForHost returns the assignment for one host
func (s *StaticSupplier) GetTokenForHost(_ context.Context, host *model.Host, _ []*model.Host) (model.HostToken, error) {
	for _, ht := range s.tokens {
		if ht.Host.Equals(host) {
			return ht, nil
		}
	}
	return model.HostToken{}, ErrTokenNotFound
}

// filterTokens restricts a token list to assignments whose host appears
// in the given set, keyed by host identity
func filterTokens(tokens []model.HostToken, hosts []*model.Host) []model.HostToken {
	if hosts == nil {
		return tokens
	}
	want := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		want[h.Key()] = true
	}
	out := make([]model.HostToken, 0, len(tokens))
	for _, ht := range tokens {
		if want[ht.Host.Key()] {
			out = append(out, ht)
		}
	}
	return out
}
