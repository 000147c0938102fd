package server_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

func TestHealthEndpoints(t *testing.T) {
	srv := startServer(t, false)

	resp, err := srv.Client.HTTPClient.Get(srv.Client.BaseURL + "/livez")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var live passsdk.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&live))
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	resp, err = srv.Client.HTTPClient.Get(srv.Client.BaseURL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ready passsdk.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
}
