//go:build integration

package order

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/alim-webecc/ha-tms/internal/entity"
	"github.com/alim-webecc/ha-tms/internal/repository/sequence"
)

func setupRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("tms"),
		postgres.WithUsername("tms"),
		postgres.WithPassword("tms"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db.DB, migrationsPath()))

	return &Repository{
		writer:          db,
		reader:          db,
		queryTimeout:    10 * time.Second,
		defaultPageSize: 50,
		maxPageSize:     200,
	}
}

func migrationsPath() string {
	_, filename, _, _ := runtime.Caller(0)
	packageDir := filepath.Dir(filename)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(packageDir)))
	return filepath.Join(projectRoot, "db", "migrations", "sql")
}

func newOrder(tenant string) *entity.Order {
	now := time.Now().UTC()
	return &entity.Order{
		Status:    entity.StatusOpen,
		TenantID:  tenant,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAllocatesUniqueNumbers(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	const workers = 10
	numbers := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order := newOrder("TR")
			if err := repo.Create(ctx, order); err != nil {
				t.Errorf("create: %v", err)
				return
			}
			numbers[i] = order.OrderNumber
		}(i)
	}
	wg.Wait()

	seen := map[int64]struct{}{}
	for _, n := range numbers {
		assert.Positive(t, n)
		_, dup := seen[n]
		assert.False(t, dup, "order number %d allocated twice", n)
		seen[n] = struct{}{}
	}
}

func TestSequenceSurvivesFailedInsert(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	first := newOrder("TR")
	require.NoError(t, repo.Create(ctx, first))

	// A failing insert burns its number; the next create just moves on.
	bad := newOrder("TR")
	bad.TenantID = strings.Repeat("x", 100)
	require.Error(t, repo.Create(ctx, bad))

	second := newOrder("TR")
	require.NoError(t, repo.Create(ctx, second))
	assert.Greater(t, second.OrderNumber, first.OrderNumber)
}

func TestAllocatorDetectsMissingValue(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	n1, err := sequence.NextIn(ctx, repo.writer)
	require.NoError(t, err)
	n2, err := sequence.NextIn(ctx, repo.writer)
	require.NoError(t, err)
	assert.Greater(t, n2, n1)
}

func TestPartialUpdateKeepsOtherColumns(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	shipper := "Spedition Nord GmbH"
	order := newOrder("TR")
	order.Shipper = &shipper
	require.NoError(t, repo.Create(ctx, order))

	status := entity.StatusInProgress
	updated, err := repo.Update(ctx, order.ID, Patch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusInProgress, updated.Status)
	require.NotNil(t, updated.Shipper)
	assert.Equal(t, shipper, *updated.Shipper)
	assert.True(t, updated.UpdatedAt.After(order.UpdatedAt) || updated.UpdatedAt.Equal(order.UpdatedAt))
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	status := entity.StatusClosed
	_, err := repo.Update(ctx, 987654, Patch{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	order := newOrder("TR")
	require.NoError(t, repo.Create(ctx, order))

	reason := "storniert"
	deleted, err := repo.SoftDelete(ctx, order.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeleted, deleted.Status)
	require.NotNil(t, deleted.Remark)
	assert.Equal(t, reason, *deleted.Remark)

	again, err := repo.SoftDelete(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeleted, again.Status)
	require.NotNil(t, again.Remark)
	assert.Equal(t, reason, *again.Remark)

	// Deleted rows stay reachable by id.
	loaded, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeleted, loaded.Status)
}

func TestListScopesToTenant(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	for _, tenant := range []string{"TR", "TR", "DE"} {
		require.NoError(t, repo.Create(ctx, newOrder(tenant)))
	}

	orders, err := repo.List(ctx, Filter{TenantID: "TR"})
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	for _, order := range orders {
		assert.Equal(t, "TR", order.TenantID)
	}
}

func TestListFiltersByStatusAndZip(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	zip := "20095"
	open := newOrder("TR")
	open.FromZip = &zip
	require.NoError(t, repo.Create(ctx, open))

	closed := newOrder("TR")
	closed.Status = entity.StatusClosed
	require.NoError(t, repo.Create(ctx, closed))

	orders, err := repo.List(ctx, Filter{TenantID: "TR", Status: entity.StatusOpen, FromZip: zip})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, open.ID, orders[0].ID)
}

func TestListClampsPaging(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newOrder("TR")))
	}

	// Absent limit falls back to the default page size.
	orders, err := repo.List(ctx, Filter{TenantID: "TR", Offset: -3})
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	// Explicit non-positive limits clamp to one row, not the default.
	negative := -5
	orders, err = repo.List(ctx, Filter{TenantID: "TR", Limit: &negative})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	zero := 0
	orders, err = repo.List(ctx, Filter{TenantID: "TR", Limit: &zero})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	one := 1
	orders, err = repo.List(ctx, Filter{TenantID: "TR", Limit: &one, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestGetByIDMissing(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 424242)
	assert.ErrorIs(t, err, ErrNotFound)
}
