package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"plantshop/internal/models"
	"plantshop/internal/repositories"
	"plantshop/internal/services"
	pkgerrors "plantshop/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CreateCategory(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	service := services.NewCategoryService(mockRepo, new(MockProductRepository), nil, nil)

	mockRepo.On("GetBySlug", mock.Anything, "комнатные-растения").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Name == "Комнатные растения" && c.Slug == "комнатные-растения"
	})).Return(nil).Once()
	mockRepo.On("GetBySlug", mock.Anything, "ferns").Return(&models.Category{ID: 2, Name: "Ferns", Slug: "ferns"}, nil).Once()

	category, err := service.CreateCategory(context.Background(), " Комнатные растения ")
	require.NoError(t, err)
	assert.Equal(t, "комнатные-растения", category.Slug)

	_, err = service.CreateCategory(context.Background(), "Ferns")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	_, err = service.CreateCategory(context.Background(), "  !! ")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	mockRepo.AssertExpectations(t)
}

func TestCategoryService_UpdateCategoryInvalidatesProducts(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	products := new(MockProductRepository)
	productCache := newMemoryCache()
	service := services.NewCategoryService(mockRepo, products, productCache, nil)

	mockRepo.On("GetByID", mock.Anything, uint(2)).Return(&models.Category{ID: 2, Name: "Ferns", Slug: "ferns"}, nil).Once()
	// renaming to its own slug is not a conflict
	mockRepo.On("GetBySlug", mock.Anything, "ferns").Return(&models.Category{ID: 2, Name: "Ferns", Slug: "ferns"}, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.ID == 2 && c.Name == "FERNS"
	})).Return(nil).Once()
	products.On("IDsInCategory", mock.Anything, uint(2)).Return([]uint{5, 6}, nil).Once()
	mockRepo.On("GetByID", mock.Anything, uint(9)).
		Return(nil, fmt.Errorf("category where id = ? 9: %w", repositories.ErrNotFound)).Once()

	category, err := service.UpdateCategory(context.Background(), 2, "FERNS")
	require.NoError(t, err)
	assert.Equal(t, "FERNS", category.Name)
	assert.Equal(t, []uint{5, 6}, productCache.invalidated)

	_, err = service.UpdateCategory(context.Background(), 9, "Cacti")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCategoryNotFound))

	mockRepo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	products := new(MockProductRepository)
	productCache := newMemoryCache()
	service := services.NewCategoryService(mockRepo, products, productCache, nil)

	products.On("IDsInCategory", mock.Anything, uint(2)).Return([]uint{5}, nil).Once()
	mockRepo.On("Delete", mock.Anything, uint(2)).Return(nil).Once()
	products.On("IDsInCategory", mock.Anything, uint(9)).Return([]uint{}, nil).Once()
	mockRepo.On("Delete", mock.Anything, uint(9)).Return(fmt.Errorf("category with ID 9: %w", repositories.ErrNotFound)).Once()
	products.On("IDsInCategory", mock.Anything, uint(10)).Return([]uint{}, nil).Once()
	mockRepo.On("Delete", mock.Anything, uint(10)).Return(errors.New("disk full")).Once()

	require.NoError(t, service.DeleteCategory(context.Background(), 2))
	assert.Equal(t, []uint{5}, productCache.invalidated)

	err := service.DeleteCategory(context.Background(), 9)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCategoryNotFound))

	err = service.DeleteCategory(context.Background(), 10)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))

	mockRepo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestCategoryService_ListCategories(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	service := services.NewCategoryService(mockRepo, new(MockProductRepository), nil, nil)

	mockRepo.On("GetAll", mock.Anything).Return([]models.Category{{ID: 1, Name: "Cacti"}}, nil).Once()
	mockRepo.On("GetAll", mock.Anything).Return(nil, errors.New("timeout")).Once()

	categories, err := service.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	_, err = service.ListCategories(context.Background())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
	mockRepo.AssertExpectations(t)
}
