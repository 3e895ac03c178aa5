package topology

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fakeNetflix/dyno/internal/model"
)

// tokenMapFile is the on-disk token map format:
//
//	tokens:
//	  - hostname: host-1
//	    port: 8102
//	    rack: us-east-1c
//	    datacenter: us-east-1
//	    token: 1383429731
type tokenMapFile struct {
	Tokens []tokenMapEntry `yaml:"tokens"`
}

type tokenMapEntry struct {
	Hostname   string `yaml:"hostname"`
	Port       int    `yaml:"port"`
	Rack       string `yaml:"rack"`
	Datacenter string `yaml:"datacenter"`
	Token      uint64 `yaml:"token"`
}

// YAMLSupplier reads the token map from a YAML file. The file is parsed
// on every GetTokens call so an edited map takes effect on the next
// topology rebuild.
type YAMLSupplier struct {
	path   string
	logger *zap.Logger
}

// NewYAMLSupplier creates a supplier over the given token map file
func NewYAMLSupplier(path string, logger *zap.Logger) *YAMLSupplier {
	return &YAMLSupplier{path: path, logger: logger}
}

// GetTokens parses the file and returns assignments for the given hosts
func (s *YAMLSupplier) GetTokens(_ context.Context, activeHosts []*model.Host) ([]model.HostToken, error) {
	tokens, err := s.load()
	if err != nil {
		return nil, err
	}
	return filterTokens(tokens, activeHosts), nil
}

// GetTokenForHost parses the file and returns the assignment for one host
func (s *YAMLSupplier) GetTokenForHost(_ context.Context, host *model.Host, _ []*model.Host) (model.HostToken, error) {
	tokens, err := s.load()
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

func (s *YAMLSupplier) load() ([]model.HostToken, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token map %s: %w", s.path, err)
	}

	var file tokenMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse token map %s: %w", s.path, err)
	}

	tokens := make([]model.HostToken, 0, len(file.Tokens))
	for _, e := range file.Tokens {
		host := model.NewHost(e.Hostname, e.Port, e.Rack, e.Datacenter, model.StatusUp)
		tokens = append(tokens, model.NewHostToken(e.Token, host))
	}

	s.logger.Debug("Token map loaded",
		zap.String("path", s.path),
		zap.Int("entries", len(tokens)))

	return tokens, nil
}
