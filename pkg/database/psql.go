package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresDSN builds a postgres:// connection string
func PostgresDSN(user, password, host string, port int, database string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", user, password, host, port, database)
}

// NewDatabaseConnection opens a pgx pool, retrying per d.Retry
func NewDatabaseConnection(ctx context.Context, d Connection) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(d.ConnectStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	var pool *pgxpool.Pool
	err = withRetry(ctx, "postgreSQL", d.Retry, func(ctx context.Context) error {
		p, err := pgxpool.ConnectConfig(ctx, dbConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewPGConnection opens a gorm postgres connection, retrying per d.Retry
func NewPGConnection(ctx context.Context, d Connection) (*gorm.DB, error) {
	var db *gorm.DB
	err := withRetry(ctx, "gorm postgreSQL", d.Retry, func(ctx context.Context) error {
		g, err := gorm.Open(postgres.Open(d.ConnectStr), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return err
		}
		sqlDB, err := g.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return err
		}
		db = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
