package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
)

// Интеграционные тесты гоняются против живого PostgreSQL: DATABASE_URI
// должен указывать на тестовую базу, миграции накатываются при старте.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	uri := os.Getenv("DATABASE_URI")
	if uri == "" {
		t.Skip("DATABASE_URI is not set")
	}

	m, err := migrate.New("file://../../../../migrations", uri)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}
	m.Close()

	pool, err := pgxpool.New(context.Background(), uri)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), `TRUNCATE sync_queue_items RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool
}

func testQueueRepo(t *testing.T) *QueueRepository {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewQueueRepository(testPool(t), log)
}

func seedItem(t *testing.T, repo *QueueRepository, deviceID, tag string, priority int) *queue.Item {
	t.Helper()
	item, err := repo.Create(context.Background(), &queue.Item{
		UserID:         7,
		DeviceID:       deviceID,
		EntityType:     "ORDER",
		EntityID:       "order-" + tag,
		Operation:      apply.OpUpdate,
		BaseVersion:    1,
		SourceChangeID: deviceID + "-chg-" + tag,
		Status:         queue.StatusPending,
		Priority:       priority,
		MaxRetries:     queue.DefaultMaxRetries,
	})
	require.NoError(t, err)
	return item
}

func TestQueueRepository_DequeueDue_PriorityOrder(t *testing.T) {
	repo := testQueueRepo(t)
	ctx := context.Background()

	low := seedItem(t, repo, "tablet-order", "low", 9)
	high := seedItem(t, repo, "tablet-order", "high", 1)
	midFirst := seedItem(t, repo, "tablet-order", "mid-1", 5)
	midSecond := seedItem(t, repo, "tablet-order", "mid-2", 5)

	// created_at разводится явно: вставки могут попасть в один тик NOW()
	for i, id := range []int64{low.ID, high.ID, midFirst.ID, midSecond.ID} {
		_, err := repo.pool.Exec(ctx,
			`UPDATE sync_queue_items SET created_at = NOW() - INTERVAL '1 minute' + ($2 * INTERVAL '1 second') WHERE id = $1`,
			id, i)
		require.NoError(t, err)
	}

	items, err := repo.DequeueDue(ctx, 7, "tablet-order", 10)

	require.NoError(t, err)
	require.Len(t, items, 4)
	// приоритет важнее момента постановки, внутри приоритета — FIFO
	assert.Equal(t, []int64{high.ID, midFirst.ID, midSecond.ID, low.ID},
		[]int64{items[0].ID, items[1].ID, items[2].ID, items[3].ID})
	for _, it := range items {
		assert.Equal(t, queue.StatusInProgress, it.Status)
	}
}

func TestQueueRepository_DequeueDue_ConcurrentClaimsDisjoint(t *testing.T) {
	repo := testQueueRepo(t)
	ctx := context.Background()

	const total = 20
	for i := 0; i < total; i++ {
		_, err := repo.Create(ctx, &queue.Item{
			UserID:         7,
			DeviceID:       "tablet-claims",
			EntityType:     "ORDER",
			EntityID:       fmt.Sprintf("order-%d", i),
			Operation:      apply.OpUpdate,
			BaseVersion:    1,
			SourceChangeID: fmt.Sprintf("claims-chg-%d", i),
			Status:         queue.StatusPending,
			Priority:       queue.DefaultPriority,
			MaxRetries:     queue.DefaultMaxRetries,
		})
		require.NoError(t, err)
	}

	// несколько воркеров выгребают очередь одновременно: каждый элемент
	// должен достаться ровно одному
	var (
		mu      sync.Mutex
		claimed []int64
		wg      sync.WaitGroup
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := repo.DequeueDue(ctx, 7, "tablet-claims", total)
			assert.NoError(t, err)
			mu.Lock()
			for _, it := range items {
				claimed = append(claimed, it.ID)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool, total)
	for _, id := range claimed {
		assert.False(t, seen[id], "item %d claimed twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, total)
}
