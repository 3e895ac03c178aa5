package topology

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/model"
)

// clusterNode is one entry of the JSON topology endpoint, matching the
// shape the backend's cluster-describe endpoint publishes
type clusterNode struct {
	Token      uint64 `json:"token"`
	Hostname   string `json:"hostname"`
	Port       int    `json:"port"`
	Rack       string `json:"rack"`
	Datacenter string `json:"dc"`
}

// HTTPSupplier fetches the token map from an HTTP topology endpoint
type HTTPSupplier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPSupplier creates a supplier for the given topology URL
func NewHTTPSupplier(url string, timeout time.Duration, logger *zap.Logger) *HTTPSupplier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSupplier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// GetTokens fetches the topology and returns assignments for the given hosts
func (s *HTTPSupplier) GetTokens(ctx context.Context, activeHosts []*model.Host) ([]model.HostToken, error) {
	tokens, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return filterTokens(tokens, activeHosts), nil
}

// GetTokenForHost fetches the topology and returns the assignment for one host
func (s *HTTPSupplier) GetTokenForHost(ctx context.Context, host *model.Host, _ []*model.Host) (model.HostToken, error) {
	tokens, err := s.fetch(ctx)
	if err != nil {
		return model.HostToken{}, err
	}
	for _, ht := range tokens {
		if ht.Host.Equals(host) {
			return ht, nil
		}
	}
	return model.HostToken{}, ErrTokenNotFound
}

func (s *HTTPSupplier) fetch(ctx context.Context) ([]model.HostToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build topology request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch topology from %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("topology endpoint %s returned %d", s.url, resp.StatusCode)
	}

	var nodes []clusterNode
	if err := json.NewDecoder(resp.Body).Decode(&nodes); err != nil {
		return nil, fmt.Errorf("failed to decode topology response: %w", err)
	}

	tokens := make([]model.HostToken, 0, len(nodes))
	for _, n := range nodes {
		host := model.NewHost(n.Hostname, n.Port, n.Rack, n.Datacenter, model.StatusUp)
		tokens = append(tokens, model.NewHostToken(n.Token, host))
	}

	s.logger.Debug("Topology fetched",
		zap.String("url", s.url),
		zap.Int("entries", len(tokens)))

	return tokens, nil
}
