// Package graph реализует GraphQL API конфигурации: запрос getData,
// историю изменений и мутацию saveConfig.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"atm-admin/internal/service"
	"atm-admin/shared/models"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

const defaultChangesLimit = 50

type dataKey struct{}

// requestData кэширует ответ GetData в пределах одного запроса,
// чтобы поля config, cryptoCurrencies и machines не читали данные трижды.
type requestData struct {
	once sync.Once
	data *models.ConfigData
	err  error
}

func withRequestData(ctx context.Context) context.Context {
	return context.WithValue(ctx, dataKey{}, &requestData{})
}

type resolver struct {
	svc    service.ConfigService
	logger *zap.Logger
}

func (r *resolver) loadData(ctx context.Context) (*models.ConfigData, error) {
	rd, ok := ctx.Value(dataKey{}).(*requestData)
	if !ok {
		return r.svc.GetData(ctx)
	}
	rd.once.Do(func() {
		rd.data, rd.err = r.svc.GetData(ctx)
	})
	return rd.data, rd.err
}

// NewSchema строит схему поверх ConfigService.
func NewSchema(svc service.ConfigService, logger *zap.Logger) (graphql.Schema, error) {
	r := &resolver{svc: svc, logger: logger}

	cryptoCurrencyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CryptoCurrency",
		Fields: graphql.Fields{
			"code":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"display": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	machineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Machine",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"deviceId": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	configChangeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ConfigChange",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*models.ConfigChange).ID.String(), nil
				},
			},
			"changedBy": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*models.ConfigChange).ChangedBy, nil
				},
			},
			"patch": &graphql.Field{
				Type: JSON,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var patch any
					if err := json.Unmarshal(p.Source.(*models.ConfigChange).Patch, &patch); err != nil {
						return nil, fmt.Errorf("decode patch: %w", err)
					}
					return patch, nil
				},
			},
			"createdAt": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*models.ConfigChange).CreatedAt.UTC().Format(time.RFC3339), nil
				},
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"config": &graphql.Field{
				Type:    JSONObject,
				Resolve: r.resolveConfig,
			},
			"cryptoCurrencies": &graphql.Field{
				Type:    graphql.NewList(cryptoCurrencyType),
				Resolve: r.resolveCryptoCurrencies,
			},
			"machines": &graphql.Field{
				Type:    graphql.NewList(machineType),
				Resolve: r.resolveMachines,
			},
			"configChanges": &graphql.Field{
				Type: graphql.NewList(configChangeType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultChangesLimit},
				},
				Resolve: r.resolveConfigChanges,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"saveConfig": &graphql.Field{
				Type: JSONObject,
				Args: graphql.FieldConfigArgument{
					"config": &graphql.ArgumentConfig{Type: JSONObject},
				},
				Resolve: r.resolveSaveConfig,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func (r *resolver) resolveConfig(p graphql.ResolveParams) (interface{}, error) {
	data, err := r.loadData(p.Context)
	if err != nil {
		return nil, err
	}
	return data.Config, nil
}

func (r *resolver) resolveCryptoCurrencies(p graphql.ResolveParams) (interface{}, error) {
	data, err := r.loadData(p.Context)
	if err != nil {
		return nil, err
	}
	return data.CryptoCurrencies, nil
}

func (r *resolver) resolveMachines(p graphql.ResolveParams) (interface{}, error) {
	data, err := r.loadData(p.Context)
	if err != nil {
		return nil, err
	}
	return data.Machines, nil
}

func (r *resolver) resolveConfigChanges(p graphql.ResolveParams) (interface{}, error) {
	limit, _ := p.Args["limit"].(int)
	return r.svc.History(p.Context, limit)
}

func (r *resolver) resolveSaveConfig(p graphql.ResolveParams) (interface{}, error) {
	fragment, ok := p.Args["config"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: config must be a JSON object", models.ErrInvalidInput)
	}
	blob, err := r.svc.SaveConfig(p.Context, fragment)
	if err != nil {
		r.logger.Warn("saveConfig failed", zap.Error(err))
		return nil, err
	}
	return blob, nil
}
