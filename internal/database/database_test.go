package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"plantshop/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Product{Name: "Monstera", Slug: "monstera", Price: 500, Stock: 3}).Error; err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	var count int64
	require.NoError(t, client.DB().Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithTxCommits(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.Product{Name: "Calathea", Slug: "calathea", Price: 700, Stock: 1}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, client.Ping(ctx))
}

func TestProductNamesUniqueAmongLiveRows(t *testing.T) {
	client := newTestClient(t)
	db := client.DB()

	first := &models.Product{Name: "Monstera", Slug: "monstera", Price: 500, Stock: 3}
	require.NoError(t, db.Create(first).Error)
	assert.Error(t, db.Create(&models.Product{Name: "Monstera", Slug: "monstera", Price: 600}).Error)

	require.NoError(t, db.Delete(&models.Product{}, first.ID).Error)
	again := &models.Product{Name: "Monstera", Slug: "monstera", Price: 600, Stock: 1}
	require.NoError(t, db.Create(again).Error)
	assert.NotEqual(t, first.ID, again.ID)
}

func TestMigrateDropsLegacyProductIndexes(t *testing.T) {
	client := newTestClient(t)
	db := client.DB()

	require.NoError(t, db.Exec("CREATE UNIQUE INDEX idx_products_name ON products(name)").Error)
	require.True(t, db.Migrator().HasIndex(&models.Product{}, "idx_products_name"))

	require.NoError(t, migrate(db))
	assert.False(t, db.Migrator().HasIndex(&models.Product{}, "idx_products_name"))
	assert.True(t, db.Migrator().HasIndex(&models.Product{}, "idx_products_live_name"))
}
