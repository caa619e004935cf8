package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-restaurant-ordering/config"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured backend and returns it as a Store.
func Open(ctx context.Context, cfg config.Database) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN, cfg.MaxConns)
	case "sqlite":
		return OpenSQLite(cfg.DSN)
	case "mongo":
		return OpenMongo(ctx, cfg.DSN, cfg.MongoDB, cfg.MaxConns)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        utcNow,
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// OpenPostgres builds a pgx pool and hands it to gorm through database/sql.
func OpenPostgres(ctx context.Context, dsn string, maxConns int) (*GormStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), gormConfig())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	store := NewGormStore(db)
	store.onClose = pool.Close
	return store, nil
}

// OpenSQLite opens a file-backed SQLite database. SQLite allows one writer at
// a time, so the pool is limited to a single connection and concurrent units
// of work queue behind each other.
func OpenSQLite(path string) (*GormStore, error) {
	dsn := path
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return NewGormStore(db), nil
}

func OpenMongo(ctx context.Context, uri, dbName string, maxConns int) (*MongoStore, error) {
	opts := options.Client().ApplyURI(uri)
	if maxConns > 0 {
		opts.SetMaxPoolSize(uint64(maxConns))
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoStore(client, dbName), nil
}
