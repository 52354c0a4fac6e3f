//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"compass/internal/employee/models"
	"compass/internal/ingest"
	"compass/internal/platform/config"
	platformredis "compass/internal/platform/redis"
	"compass/internal/session"
	"compass/pkg/sentinel"
	"compass/pkg/testutil/containers"
)

// =============================================================================
// Postgres Store Integration Suite
// =============================================================================

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	employees *session.PostgresEmployeeStore
	sessions  *session.PostgresSessionStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(session.EnsureSchema(context.Background(), s.postgres.DB))
	s.employees = session.NewPostgresEmployeeStore(s.postgres.DB)
	s.sessions = session.NewPostgresSessionStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "employees", "sessions"))
}

func (s *PostgresStoreSuite) TestEmployeeRoundTrip() {
	ctx := context.Background()

	in := []*models.Employee{
		{EmployeeID: "E-2", DisplayName: "Ben King", BaseSalary: models.USD(85000)},
		{EmployeeID: "E-1", DisplayName: "Ana Lopez", BaseSalary: models.NewMoney(80000, "EUR")},
	}
	s.Require().NoError(s.employees.ReplaceAll(ctx, in))

	list, err := s.employees.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("E-2", list[0].EmployeeID, "list keeps join order")
	s.Equal("EUR", list[1].BaseSalary.Currency)

	got, err := s.employees.Get(ctx, "E-1")
	s.Require().NoError(err)
	got.ProposedRaise = models.USD(4000)
	s.Require().NoError(s.employees.Update(ctx, got))

	reloaded, err := s.employees.Get(ctx, "E-1")
	s.Require().NoError(err)
	s.Equal(4000.0, reloaded.ProposedRaise.Amount)

	_, err = s.employees.Get(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestReplaceAllIsWholesale() {
	ctx := context.Background()

	s.Require().NoError(s.employees.ReplaceAll(ctx, []*models.Employee{
		{EmployeeID: "E-1", BaseSalary: models.USD(1)},
	}))
	s.Require().NoError(s.employees.ReplaceAll(ctx, []*models.Employee{
		{EmployeeID: "E-9", BaseSalary: models.USD(2)},
	}))

	list, err := s.employees.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("E-9", list[0].EmployeeID)
}

func (s *PostgresStoreSuite) TestSessionSingleton() {
	ctx := context.Background()

	_, err := s.sessions.Current(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.sessions.Save(ctx, session.Session{ID: "sess-1", EmployeeCount: 3}))
	s.Require().NoError(s.sessions.Save(ctx, session.Session{ID: "sess-2", EmployeeCount: 5}))

	current, err := s.sessions.Current(ctx)
	s.Require().NoError(err)
	s.Equal("sess-2", current.ID, "saving replaces the single current session")

	s.Require().NoError(s.sessions.Reset(ctx))
	_, err = s.sessions.Current(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// =============================================================================
// Redis File Cache Integration Suite
// =============================================================================

type RedisFileCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *session.RedisFileCache
}

func TestRedisFileCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisFileCacheSuite))
}

func (s *RedisFileCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	client, err := platformredis.New(config.RedisConfig{
		URL:          s.redis.URL,
		PoolSize:     5,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	s.Require().NoError(err)
	s.Require().NotNil(client)
	s.cache = session.NewRedisFileCache(client, time.Minute)
}

func (s *RedisFileCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisFileCacheSuite) TestRoundTrip() {
	ctx := context.Background()

	result := &ingest.FileResult{
		FileName:    "comp.csv",
		FileType:    ingest.TypeSalary,
		ContentHash: "abc123",
		ValidRows:   2,
		Salary: []models.SalaryRow{
			{EmployeeID: "E-1", Name: "Ana Lopez", BaseSalary: models.USD(90000)},
		},
	}
	s.cache.Set(ctx, result.ContentHash, result)

	cached, ok := s.cache.Get(ctx, "abc123")
	s.Require().True(ok)
	s.Equal(ingest.TypeSalary, cached.FileType)
	s.Require().Len(cached.Salary, 1)
	s.Equal("Ana Lopez", cached.Salary[0].Name)

	_, ok = s.cache.Get(ctx, "missing")
	s.False(ok)

	s.cache.Clear(ctx)
	_, ok = s.cache.Get(ctx, "abc123")
	s.False(ok)
}
