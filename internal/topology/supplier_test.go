package topology

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/model"
)

func TestStaticSupplierFiltersByHost(t *testing.T) {
	h1 := model.NewHost("host-1", 8102, "rack-1a", "dc-1", model.StatusUp)
	h2 := model.NewHost("host-2", 8102, "rack-1b", "dc-1", model.StatusUp)
	s := NewStaticSupplier([]model.HostToken{
		model.NewHostToken(100, h1),
		model.NewHostToken(200, h2),
	})

	tokens, err := s.GetTokens(context.Background(), []*model.Host{h1})
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, uint64(100), tokens[0].Token)

	// A nil host list means no filtering
	tokens, err = s.GetTokens(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
}

func TestStaticSupplierGetTokenForHost(t *testing.T) {
	h1 := model.NewHost("host-1", 8102, "rack-1a", "dc-1", model.StatusUp)
	s := NewStaticSupplier([]model.HostToken{
		model.NewHostToken(100, h1),
	})

	ht, err := s.GetTokenForHost(context.Background(), h1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), ht.Token)

	other := model.NewHost("host-9", 8102, "rack-1a", "dc-1", model.StatusUp)
	_, err = s.GetTokenForHost(context.Background(), other, nil)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestYAMLSupplier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")
	content := `tokens:
  - hostname: host-1
    port: 8102
    rack: rack-1a
    datacenter: dc-1
    token: 1383429731
  - hostname: host-2
    port: 8102
    rack: rack-1b
    datacenter: dc-1
    token: 3530913377
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := NewYAMLSupplier(path, zap.NewNop())
	tokens, err := s.GetTokens(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, uint64(1383429731), tokens[0].Token)
	assert.Equal(t, "host-1", tokens[0].Host.Hostname)
	assert.Equal(t, "rack-1b", tokens[1].Host.Rack)

	h2 := model.NewHost("host-2", 8102, "rack-1b", "dc-1", model.StatusUp)
	ht, err := s.GetTokenForHost(context.Background(), h2, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3530913377), ht.Token)
}

func TestYAMLSupplierMissingFile(t *testing.T) {
	s := NewYAMLSupplier(filepath.Join(t.TempDir(), "absent.yaml"), zap.NewNop())

	_, err := s.GetTokens(context.Background(), nil)
	assert.Error(t, err)
}

func TestYAMLSupplierMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tokens: {not a list"), 0o644))

	s := NewYAMLSupplier(path, zap.NewNop())
	_, err := s.GetTokens(context.Background(), nil)
	assert.Error(t, err)
}

func TestHTTPSupplier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"token": 1383429731, "hostname": "host-1", "port": 8102, "rack": "rack-1a", "dc": "dc-1"},
			{"token": 3530913377, "hostname": "host-2", "port": 8102, "rack": "rack-1b", "dc": "dc-1"}
		]`))
	}))
	defer srv.Close()

	s := NewHTTPSupplier(srv.URL, 0, zap.NewNop())
	tokens, err := s.GetTokens(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "host-1", tokens[0].Host.Hostname)
	assert.Equal(t, "dc-1", tokens[0].Host.Datacenter)

	h1 := model.NewHost("host-1", 8102, "rack-1a", "dc-1", model.StatusUp)
	ht, err := s.GetTokenForHost(context.Background(), h1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1383429731), ht.Token)
}

func TestHTTPSupplierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPSupplier(srv.URL, 0, zap.NewNop())
	_, err := s.GetTokens(context.Background(), nil)
	assert.Error(t, err)
}
