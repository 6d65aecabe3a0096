// Package client - HTTP-клиент GraphQL API конфигурации. Позволяет экранам
// работать с удалённым сервером конфигурации вместо сервиса в процессе.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"atm-admin/shared/models"

	"go.uber.org/zap"
)

const (
	getDataQuery = `query getData {
  config
  cryptoCurrencies { code display }
  machines { name deviceId }
}`
	saveConfigMutation = `mutation saveConfig($config: JSONObject) {
  saveConfig(config: $config)
}`
)

// Config - настройки клиента.
type Config struct {
	Endpoint string        // полный URL /graphql
	Token    string        // Bearer-токен администратора
	Timeout  time.Duration
}

// GraphQLClient выполняет getData и saveConfig по HTTP.
type GraphQLClient struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

type gqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// NewGraphQLClient создает клиент для cfg.Endpoint.
func NewGraphQLClient(cfg Config, logger *zap.Logger) (*GraphQLClient, error) {
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid GraphQL endpoint: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphQLClient{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("GraphQLClient"),
	}, nil
}

// GetData выполняет запрос getData.
func (c *GraphQLClient) GetData(ctx context.Context) (*models.ConfigData, error) {
	var data models.ConfigData
	if err := c.do(ctx, gqlRequest{Query: getDataQuery, OperationName: "getData"}, &data); err != nil {
		return nil, err
	}
	if data.Config == nil {
		data.Config = map[string]any{}
	}
	return &data, nil
}

// SaveConfig выполняет мутацию saveConfig и возвращает обновлённый блоб.
func (c *GraphQLClient) SaveConfig(ctx context.Context, fragment map[string]any) (map[string]any, error) {
	var data struct {
		SaveConfig map[string]any `json:"saveConfig"`
	}
	req := gqlRequest{
		Query:         saveConfigMutation,
		OperationName: "saveConfig",
		Variables:     map[string]any{"config": fragment},
	}
	if err := c.do(ctx, req, &data); err != nil {
		return nil, err
	}
	return data.SaveConfig, nil
}

func (c *GraphQLClient) do(ctx context.Context, gql gqlRequest, out any) error {
	log := c.logger.With(zap.String("operation", gql.OperationName))

	body, err := json.Marshal(gql)
	if err != nil {
		return fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("GraphQL request failed", zap.Error(err))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn("Unexpected GraphQL response status", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		return fmt.Errorf("graphql endpoint returned status %d", resp.StatusCode)
	}

	var gqlResp gqlResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return fmt.Errorf("failed to decode GraphQL response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		msgs := make([]string, len(gqlResp.Errors))
		for i, e := range gqlResp.Errors {
			msgs[i] = e.Message
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if len(gqlResp.Data) == 0 || string(gqlResp.Data) == "null" {
		return errors.New("graphql response has no data")
	}
	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return fmt.Errorf("failed to decode GraphQL data: %w", err)
	}
	return nil
}
