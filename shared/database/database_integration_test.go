//go:build integration

package database_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"atm-admin/pkg/migration"
	"atm-admin/shared/configservice"
	"atm-admin/shared/database"
	"atm-admin/shared/interfaces"
	"atm-admin/shared/models"
	"atm-admin/shared/namespace"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type DatabaseSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool
	configRepo  interfaces.ConfigRepository
	changeRepo  interfaces.ConfigChangeRepository
	machineRepo interfaces.MachineRepository
	logger      *zap.Logger
}

func (s *DatabaseSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()

	var err error
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("atm_admin"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	s.Require().NoError(err, "Failed to start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = database.NewPool(s.ctx, database.PoolConfig{DSN: dsn, MaxConns: 5}, s.logger)
	s.Require().NoError(err)

	runner := migration.NewRunner(s.pool, migration.Options{
		FS:  database.MigrationsFS,
		Dir: database.MigrationsPath,
	})
	version, err := runner.Up(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint(3), version)

	// Повторный запуск ничего не меняет.
	version, err = runner.Up(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint(3), version)
	current, dirty, err := runner.Version(s.ctx)
	s.Require().NoError(err)
	s.False(dirty)
	s.Equal(uint(3), current)

	s.configRepo = database.NewPgConfigRepository(s.pool, s.logger)
	s.changeRepo = database.NewPgConfigChangeRepository(s.pool, s.logger)
	s.machineRepo = database.NewPgMachineRepository(s.pool, s.logger)
}

func (s *DatabaseSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		s.NoError(s.pgContainer.Terminate(s.ctx))
	}
}

func (s *DatabaseSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE config_entries, config_changes, machines")
	s.Require().NoError(err)
}

func (s *DatabaseSuite) TestApplyUpsertsAndDeletes() {
	err := s.configRepo.Apply(s.ctx, map[string]json.RawMessage{
		"commissions_cashIn":    json.RawMessage(`2.5`),
		"commissions_overrides": json.RawMessage(`[{"id":"x","machine":"A","cryptoCurrencies":["BTC"]}]`),
		"locale_fiatCurrency":   json.RawMessage(`"EUR"`),
	}, nil)
	s.Require().NoError(err)

	err = s.configRepo.Apply(s.ctx, map[string]json.RawMessage{
		"commissions_cashIn": json.RawMessage(`3`),
	}, []string{"commissions_overrides", "missing_key"})
	s.Require().NoError(err)

	entries, err := s.configRepo.GetAll(s.ctx)
	s.Require().NoError(err)
	blob, broken := models.BlobFromEntries(entries)
	s.Empty(broken)
	s.Equal(map[string]any{"commissions_cashIn": 3.0, "locale_fiatCurrency": "EUR"}, blob)

	for _, entry := range entries {
		s.False(entry.UpdatedAt.IsZero(), entry.Key)
	}
}

func (s *DatabaseSuite) TestSnapshotLoadsFromDatabase() {
	s.Require().NoError(s.configRepo.Apply(s.ctx, map[string]json.RawMessage{
		"operatorInfo_active": json.RawMessage(`true`),
		"operatorInfo_name":   json.RawMessage(`"Corner ATM"`),
	}, nil))

	snapshot, err := configservice.NewConfigService(s.ctx, s.configRepo, s.logger)
	s.Require().NoError(err)

	s.Equal(map[string]any{"active": true, "name": "Corner ATM"}, namespace.From(namespace.OperatorInfo, snapshot.Snapshot()))

	// Изменение, сделанное другой репликой, подтягивается перечитыванием.
	s.Require().NoError(s.configRepo.Apply(s.ctx, map[string]json.RawMessage{
		"operatorInfo_name": json.RawMessage(`"Main Street ATM"`),
	}, []string{"operatorInfo_active"}))
	s.Require().NoError(snapshot.Reload(s.ctx))
	s.Equal(map[string]any{"name": "Main Street ATM"}, namespace.From(namespace.OperatorInfo, snapshot.Snapshot()))
}

func (s *DatabaseSuite) TestConfigChanges() {
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.changeRepo.Create(s.ctx, &models.ConfigChange{
			ChangedBy: "system",
			Patch:     json.RawMessage(`[{"op":"add","path":"/a","value":1}]`),
		}))
		time.Sleep(5 * time.Millisecond)
	}

	changes, err := s.changeRepo.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(changes, 2)
	s.True(!changes[0].CreatedAt.Before(changes[1].CreatedAt), "latest first")
	s.JSONEq(`[{"op":"add","path":"/a","value":1}]`, string(changes[0].Patch))
}

func (s *DatabaseSuite) TestMachines() {
	_, err := s.pool.Exec(s.ctx, `INSERT INTO machines (device_id, name) VALUES ('dev-2', 'Mall'), ('dev-1', 'Lobby')`)
	s.Require().NoError(err)

	machines, err := s.machineRepo.List(s.ctx)

	s.Require().NoError(err)
	s.Equal([]models.Machine{{Name: "Lobby", DeviceID: "dev-1"}, {Name: "Mall", DeviceID: "dev-2"}}, machines)
}

func TestDatabaseSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(DatabaseSuite))
}
