package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectAttempts = 5

// PostgresStore is the gorm-backed Store.
type PostgresStore struct {
	DB     *gorm.DB
	logger *zap.Logger
}

// Open connects to Postgres, retrying with jittered backoff, and migrates
// every table.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var (
		conn *gorm.DB
		err  error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err == nil {
			break
		}
		wait := b.Duration()
		logger.Warn("Failed to connect to DB, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(
		&Service{},
		&BotCommand{},
		&BotStatus{},
		&UserServiceConnection{},
		&CommandLog{},
		&GCPOperation{},
		&DiscordServer{},
		&UserRole{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Info("Connected to DB")
	return &PostgresStore{DB: conn, logger: logger}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newID() string {
	return uuid.NewString()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
