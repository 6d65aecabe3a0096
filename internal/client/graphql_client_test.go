package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"atm-admin/internal/client"
	"atm-admin/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

func newServer(t *testing.T, status int, response string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer service-token", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *client.GraphQLClient {
	t.Helper()
	c, err := client.NewGraphQLClient(client.Config{Endpoint: srv.URL + "/graphql", Token: "service-token"}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestGraphQLClient_GetData(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, http.StatusOK, `{"data":{
		"config":{"commissions_cashIn":2},
		"cryptoCurrencies":[{"code":"BTC","display":"Bitcoin"}],
		"machines":[{"name":"Lobby","deviceId":"dev-1"}]}}`, &captured)

	data, err := newClient(t, srv).GetData(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "getData", captured.OperationName)
	assert.Contains(t, captured.Query, "machines { name deviceId }")
	assert.Equal(t, map[string]any{"commissions_cashIn": 2.0}, data.Config)
	assert.Equal(t, []models.CryptoCurrency{{Code: "BTC", Display: "Bitcoin"}}, data.CryptoCurrencies)
	assert.Equal(t, []models.Machine{{Name: "Lobby", DeviceID: "dev-1"}}, data.Machines)
}

func TestGraphQLClient_SaveConfig(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, http.StatusOK, `{"data":{"saveConfig":{"locale_fiatCurrency":"EUR"}}}`, &captured)

	blob, err := newClient(t, srv).SaveConfig(context.Background(), map[string]any{
		"locale_fiatCurrency":   "EUR",
		"commissions_overrides": nil,
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"locale_fiatCurrency": "EUR"}, blob)
	assert.Equal(t, map[string]any{
		"config": map[string]any{"locale_fiatCurrency": "EUR", "commissions_overrides": nil},
	}, captured.Variables)
}

func TestGraphQLClient_Errors(t *testing.T) {
	t.Run("graphql errors are returned verbatim", func(t *testing.T) {
		srv := newServer(t, http.StatusOK, `{"data":{"saveConfig":null},"errors":[{"message":"invalid input data: empty configuration fragment"}]}`, nil)

		_, err := newClient(t, srv).SaveConfig(context.Background(), map[string]any{})

		require.Error(t, err)
		assert.Equal(t, "invalid input data: empty configuration fragment", err.Error())
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := newServer(t, http.StatusTooManyRequests, `{"error":"rate limited"}`, nil)

		_, err := newClient(t, srv).GetData(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		_, err := client.NewGraphQLClient(client.Config{Endpoint: "::not a url"}, nil)
		assert.Error(t, err)
	})
}
