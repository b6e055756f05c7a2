package database

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"valentine_week_backend/internal/config"
	"valentine_week_backend/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestInitDBSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "valentine.db")
	db, err := InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: path}, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, Ping(db))

	for _, table := range []interface{}{&model.UserProgress{}, &model.DayProgress{}, &model.CompletionEvent{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.FileExists(t, path)
}

func TestInitDBUnknownDriver(t *testing.T) {
	_, err := InitDB(&config.DatabaseConfig{Driver: "oracle"}, logger.Silent)
	assert.Error(t, err)
}

func TestInitRedisDisabled(t *testing.T) {
	rdb, err := InitRedis(context.Background(), &config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	rdb, err := InitRedis(context.Background(), &config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port})
	require.NoError(t, err)
	require.NotNil(t, rdb)
	t.Cleanup(func() { rdb.Close() })
}

func TestInitRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, _ := strconv.Atoi(mr.Port())
	mr.Close()

	_, err := InitRedis(context.Background(), &config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}
