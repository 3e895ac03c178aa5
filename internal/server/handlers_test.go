package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/config"
	"github.com/fakeNetflix/dyno/internal/model"
	"github.com/fakeNetflix/dyno/internal/pool"
	"github.com/fakeNetflix/dyno/internal/routing"
	"github.com/fakeNetflix/dyno/internal/topology"
)

type stubPool struct {
	host   *model.Host
	active bool
}

func (p *stubPool) Host() *model.Host { return p.host }
func (p *stubPool) IsActive() bool    { return p.active }
func (p *stubPool) Borrow(ctx context.Context) (pool.Connection, error) {
	return nil, pool.ErrPoolInactive
}

func testServer(t *testing.T) (*Server, *model.Host, *model.Host) {
	t.Helper()

	h1 := model.NewHost("host-1", 8102, "rack-1a", "dc-1", model.StatusUp)
	h2 := model.NewHost("host-2", 8102, "rack-1b", "dc-1", model.StatusUp)

	selector := routing.NewHostSelectionWithFallback(routing.Options{
		Strategy:  routing.StrategyTokenAware,
		LocalRack: "rack-1a",
		TokenSupplier: topology.NewStaticSupplier([]model.HostToken{
			model.NewHostToken(100, h1),
			model.NewHostToken(100, h2),
		}),
	}, nil, zap.NewNop())

	pools := map[*model.Host]pool.HostConnectionPool{
		h1: &stubPool{host: h1, active: true},
		h2: &stubPool{host: h2, active: true},
	}
	require.NoError(t, selector.InitWithHosts(context.Background(), pools))

	cfg := config.DefaultConfig()
	cfg.Router.LocalRack = "rack-1a"
	srv := NewServer(cfg, selector, zap.NewNop())
	srv.SetupRoutes()
	return srv, h1, h2
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestLiveness(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := doRequest(srv, http.MethodGet, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadiness(t *testing.T) {
	srv, h1, h2 := testServer(t)

	rec := doRequest(srv, http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	h1.SetStatus(model.StatusDown)
	h2.SetStatus(model.StatusDown)
	rec = doRequest(srv, http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTopologyEndpoint(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/topology")
	require.Equal(t, http.StatusOK, rec.Code)

	var info routing.TopologyInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "rack-1a", info.LocalRack)
	assert.Equal(t, 2, info.ReplicationFactor)
	assert.Len(t, info.Racks, 2)
	assert.Len(t, info.Tokens, 1)
}

func TestRingEndpoint(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/ring")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ReplicationFactor int `json:"replication_factor"`
		Tokens            []struct {
			Token uint64   `json:"token"`
			Hosts []string `json:"hosts"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.ReplicationFactor)
	require.Len(t, body.Tokens, 1)
	assert.Len(t, body.Tokens[0].Hosts, 2)
}

func TestRouteEndpoint(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/route/some-key")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "some-key", body["key"])
	// Local replica preferred
	assert.Equal(t, "host-1", body["hostname"])
	assert.Equal(t, "rack-1a", body["rack"])
}

func TestRouteEndpointFallsBack(t *testing.T) {
	srv, h1, _ := testServer(t)

	h1.SetStatus(model.StatusDown)
	rec := doRequest(srv, http.MethodGet, "/v1/route/some-key")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "host-2", body["hostname"])
}

func TestRouteEndpointNoActiveHost(t *testing.T) {
	srv, h1, h2 := testServer(t)

	h1.SetStatus(model.StatusDown)
	h2.SetStatus(model.StatusDown)
	rec := doRequest(srv, http.MethodGet, "/v1/route/some-key")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownEndpoint(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := doRequest(srv, http.MethodGet, "/v1/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
