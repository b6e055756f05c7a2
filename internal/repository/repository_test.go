package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"valentine_week_backend/internal/config"
	"valentine_week_backend/internal/model"
	"valentine_week_backend/internal/util"
	"valentine_week_backend/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2026, time.February, 7, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seed(t *testing.T, repo *ProgressRepository, userID string) *model.UserProgress {
	t.Helper()
	p, created, err := repo.Create(context.Background(), model.NewUserProgress(userID, model.ValentineWeek(), t0))
	require.NoError(t, err)
	require.True(t, created)
	return p
}

func TestProgressRepositoryCreateAndFind(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.FindByUserID(ctx, "u1")
	assert.ErrorIs(t, err, util.ErrProgressNotFound)

	seed(t, repo, "u1")

	got, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.Len(t, got.Days, 8)
	assert.True(t, got.Days[0].IsUnlocked)
	assert.False(t, got.Days[1].IsUnlocked)
	assert.True(t, got.CreatedAt.Equal(t0))

	// 重复创建返回已有记录
	again, created, err := repo.Create(ctx, model.NewUserProgress("u1", model.ValentineWeek(), t0.Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, got.ID, again.ID)
	assert.True(t, again.CreatedAt.Equal(t0))
}

func TestProgressRepositoryUpdatePersists(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	ctx := context.Background()
	seed(t, repo, "u1")

	t1 := t0.Add(time.Hour)
	updated, err := repo.Update(ctx, "u1", func(_ *gorm.DB, p *model.UserProgress) (bool, error) {
		return p.Complete(1, t1) == model.OutcomeCompleted, nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Days[0].IsCompleted)

	got, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.Days[0].IsCompleted)
	require.NotNil(t, got.Days[0].CompletionTime)
	assert.True(t, got.Days[0].CompletionTime.Equal(t1))
	assert.True(t, got.Days[1].IsUnlocked)
	assert.True(t, got.UpdatedAt.Equal(t1))
}

func TestProgressRepositoryUpdateRollsBackOnError(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	ctx := context.Background()
	seed(t, repo, "u1")

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "u1", func(_ *gorm.DB, p *model.UserProgress) (bool, error) {
		p.Complete(1, t0.Add(time.Hour))
		return true, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.Days[0].IsCompleted)
}

func TestProgressRepositoryUpdateMissing(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	_, err := repo.Update(context.Background(), "ghost", func(*gorm.DB, *model.UserProgress) (bool, error) {
		t.Fatal("mutate must not run without a record")
		return false, nil
	})
	assert.ErrorIs(t, err, util.ErrProgressNotFound)
}

func TestProgressRepositoryConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	ctx := context.Background()
	seed(t, repo, "u1")

	_, err := repo.Update(ctx, "u1", func(_ *gorm.DB, p *model.UserProgress) (bool, error) {
		return p.SetReplay(true, t0), nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for n := 1; n <= 8; n++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, err := repo.Update(ctx, "u1", func(_ *gorm.DB, p *model.UserProgress) (bool, error) {
				return p.Complete(day, t0.Add(time.Duration(day)*time.Minute)) == model.OutcomeCompleted, nil
			})
			assert.NoError(t, err)
		}(n)
	}
	wg.Wait()

	got, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	for _, d := range got.Days {
		assert.True(t, d.IsCompleted, "day %d lost", d.DayNumber)
	}
	assert.True(t, got.AllCompleted)
}

func TestProgressRepositoryReplace(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()
	original := seed(t, repo, "u1")

	_, err := repo.Update(ctx, "u1", func(_ *gorm.DB, p *model.UserProgress) (bool, error) {
		return p.Complete(1, t0.Add(time.Hour)) == model.OutcomeCompleted, nil
	})
	require.NoError(t, err)

	called := false
	fresh, err := repo.Replace(ctx, model.NewUserProgress("u1", model.ValentineWeek(), t0.Add(2*time.Hour)), func(*gorm.DB) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, original.ID, fresh.ID)

	got, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Days, 8)
	assert.False(t, got.Days[0].IsCompleted)
	assert.Nil(t, got.Days[0].CompletionTime)

	var count int64
	require.NoError(t, db.Model(&model.DayProgress{}).Count(&count).Error)
	assert.EqualValues(t, 8, count)

	// 不存在时等同于创建
	_, err = repo.Replace(ctx, model.NewUserProgress("u2", model.ValentineWeek(), t0), nil)
	require.NoError(t, err)
	_, err = repo.FindByUserID(ctx, "u2")
	assert.NoError(t, err)
}

func TestCompletionEventRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewCompletionEventRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.CompletionEvent{UserID: "u1", DayNumber: 2, OccurredAt: t0.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &model.CompletionEvent{
		UserID:          "u1",
		DayNumber:       1,
		FirstCompletion: true,
		Metadata:        datatypes.JSONMap{"request_id": "abc"},
		OccurredAt:      t0,
	}))
	require.NoError(t, repo.Create(ctx, &model.CompletionEvent{UserID: "u2", DayNumber: 1, OccurredAt: t0}))

	events, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].DayNumber)
	assert.Equal(t, "abc", events[0].Metadata["request_id"])
	assert.Equal(t, 2, events[1].DayNumber)

	require.NoError(t, repo.WithTx(db).DeleteByUser(ctx, "u1"))
	events, err = repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRedisProgressCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cache := NewRedisProgressCache(rdb, time.Minute)
	ctx := context.Background()

	miss, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	p := model.NewUserProgress("u1", model.ValentineWeek(), t0)
	p.Complete(1, t0.Add(time.Minute))
	written, err := cache.Set(ctx, p)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, time.Minute, mr.TTL("progress:u1"))

	hit, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, p.UserID, hit.UserID)
	assert.True(t, hit.Days[0].IsCompleted)
	assert.True(t, hit.Days[1].IsUnlocked)

	require.NoError(t, cache.Delete(ctx, "u1"))
	miss, err = cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	// 损坏的数据视为未命中
	require.NoError(t, mr.Set("progress:u3", "{not json"))
	miss, err = cache.Get(ctx, "u3")
	require.NoError(t, err)
	assert.Nil(t, miss)
	assert.False(t, mr.Exists("progress:u3"))
}

func TestRedisProgressCacheKeepsNewerSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cache := NewRedisProgressCache(rdb, time.Minute)
	ctx := context.Background()

	stale := model.NewUserProgress("u1", model.ValentineWeek(), t0)
	fresh := model.NewUserProgress("u1", model.ValentineWeek(), t0)
	fresh.Complete(1, t0.Add(time.Minute))

	written, err := cache.Set(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, written)

	// 较旧的快照晚到，不能覆盖
	written, err = cache.Set(ctx, stale)
	require.NoError(t, err)
	assert.False(t, written)

	got, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Days[0].IsCompleted)
	assert.True(t, got.Days[1].IsUnlocked)

	// 同一版本可以重写，重置后的新快照也能写入
	written, err = cache.Set(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, written)
	reset := model.NewUserProgress("u1", model.ValentineWeek(), t0.Add(time.Hour))
	written, err = cache.Set(ctx, reset)
	require.NoError(t, err)
	assert.True(t, written)

	got, err = cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.Days[0].IsCompleted)
}
