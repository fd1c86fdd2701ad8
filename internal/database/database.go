package database

import (
	"context"
	"fmt"
	"io"
	"log"

	"plantshop/internal/config"
	"plantshop/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client wraps the shared GORM connection.
type Client struct {
	conn *gorm.DB
}

// Open connects to the configured driver and migrates the schema.
func Open(cfg *config.Config) (*Client, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseDSN,
			PreferSimpleProtocol: true,
		})
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	maxOpen := cfg.DBMaxOpenConns
	if cfg.DBDriver == "sqlite" && maxOpen == 0 {
		// sqlite allows one writer; serialize through a single connection.
		maxOpen = 1
	}
	return open(dialector, maxOpen)
}

// OpenSQLite opens an sqlite database at dsn with a single connection.
func OpenSQLite(dsn string) (*Client, error) {
	return open(sqlite.Open(dsn), 1)
}

func open(dialector gorm.Dialector, maxOpenConns int) (*Client, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}

	if err := migrate(conn); err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// legacyProductIndexes were unique across soft-deleted rows too.
var legacyProductIndexes = []string{"idx_products_name", "idx_products_slug"}

func migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&models.User{}, &models.Category{}, &models.Product{}, &models.Order{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	migrator := conn.Migrator()
	for _, name := range legacyProductIndexes {
		if !migrator.HasIndex(&models.Product{}, name) {
			continue
		}
		if err := migrator.DropIndex(&models.Product{}, name); err != nil {
			return fmt.Errorf("failed to drop index %s: %w", name, err)
		}
	}
	return nil
}

// DB returns the underlying GORM handle.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return fmt.Errorf("getting sql db handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// WithTx executes fn inside a transaction, rolling back on error or panic.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return fmt.Errorf("getting sql db handle: %w", err)
	}
	return sqlDB.Close()
}
