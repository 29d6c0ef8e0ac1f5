package config

import (
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// lazyPostgres opens a pool without connecting
func lazyPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=127.0.0.1 port=1 user=walltribe dbname=walltribe sslmode=disable"),
		&gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func stubOpeners(t *testing.T, pg *gorm.DB, mongoErr, redisErr error) {
	t.Helper()
	prevPostgres, prevMongo, prevRedis := openPostgres, openMongo, openRedis
	t.Cleanup(func() { openPostgres, openMongo, openRedis = prevPostgres, prevMongo, prevRedis })

	openPostgres = func(string) (*gorm.DB, error) { return pg, nil }
	openMongo = func(string) (*mongo.Client, error) {
		if mongoErr != nil {
			return nil, mongoErr
		}
		return mongo.NewClient()
	}
	openRedis = func(RedisConfig) (*redis.Client, error) { return nil, redisErr }
}

func TestInitDBClosesPostgresWhenMongoFails(t *testing.T) {
	pg := lazyPostgres(t)
	stubOpeners(t, pg, errors.New("mongo unreachable"), nil)

	cfg := &Config{Postgres: PostgresConfig{DSN: "dsn"}, Mongo: MongoConfig{URI: "mongodb://x", Database: "walltribe"}}
	_, err := InitDB(cfg, zap.NewNop())
	require.ErrorContains(t, err, "failed to connect to MongoDB")

	sqlDB, err := pg.DB()
	require.NoError(t, err)
	assert.EqualError(t, sqlDB.Ping(), "sql: database is closed")
}

func TestInitDBClosesEverythingWhenRedisFails(t *testing.T) {
	pg := lazyPostgres(t)
	stubOpeners(t, pg, nil, errors.New("redis unreachable"))

	cfg := &Config{
		Postgres: PostgresConfig{DSN: "dsn"},
		Mongo:    MongoConfig{URI: "mongodb://x", Database: "walltribe"},
		Redis:    RedisConfig{Enabled: true},
	}
	_, err := InitDB(cfg, zap.NewNop())
	require.ErrorContains(t, err, "failed to connect to Redis")

	sqlDB, err := pg.DB()
	require.NoError(t, err)
	assert.EqualError(t, sqlDB.Ping(), "sql: database is closed")
}

func TestInitDBRequiresDSNs(t *testing.T) {
	_, err := InitDB(&Config{}, zap.NewNop())
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}
