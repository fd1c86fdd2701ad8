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

func TestProductService_ListProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, nil, 5)

	expectedProducts := []models.Product{
		{ID: 1, Name: "Monstera", Price: 1000, Stock: 100},
		{ID: 2, Name: "Ficus", Price: 2000, Stock: 50},
	}

	mockRepo.On("GetAll", mock.Anything).Return(expectedProducts, nil).Once()

	products, err := service.ListProducts(context.Background())

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductReadsThroughCache(t *testing.T) {
	mockRepo := new(MockProductRepository)
	productCache := newMemoryCache()
	service := services.NewProductService(mockRepo, nil, productCache, nil, 5)

	expectedProduct := &models.Product{ID: 1, Name: "Monstera", Price: 1000, Stock: 100}

	mockRepo.On("GetByID", mock.Anything, uint(1)).Return(expectedProduct, nil).Once()
	product, err := service.GetProduct(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	// second read is served from the cache
	product, err = service.GetProduct(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "Monstera", product.Name)
	mockRepo.AssertExpectations(t)

	mockRepo.On("GetByID", mock.Anything, uint(99)).Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	product, err = service.GetProduct(context.Background(), 99)
	assert.Nil(t, product)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeProductNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, nil, 5)

	mockRepo.On("GetBySlug", mock.Anything, "monstera-deliciosa").
		Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.Name == "Monstera Deliciosa" && p.Slug == "monstera-deliciosa" && p.Stock == 4
	})).Return(nil).Once()

	product, err := service.CreateProduct(context.Background(), services.ProductInput{
		Name: "  Monstera Deliciosa ", Price: 2500, Stock: 4, Discount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "monstera-deliciosa", product.Slug)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProductRejectsDuplicatesAndBadInput(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, nil, 5)

	mockRepo.On("GetBySlug", mock.Anything, "ficus").
		Return(&models.Product{ID: 7, Name: "Ficus", Slug: "ficus"}, nil).Once()

	_, err := service.CreateProduct(context.Background(), services.ProductInput{Name: "Ficus", Price: 100})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	_, err = service.CreateProduct(context.Background(), services.ProductInput{Name: "   "})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = service.CreateProduct(context.Background(), services.ProductInput{Name: "Hoya", Discount: 120})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_UpdateProductInvalidatesCache(t *testing.T) {
	mockRepo := new(MockProductRepository)
	productCache := newMemoryCache()
	service := services.NewProductService(mockRepo, nil, productCache, nil, 5)

	existing := &models.Product{ID: 3, Name: "Calathea", Slug: "calathea", Price: 700, Stock: 2}
	mockRepo.On("GetByID", mock.Anything, uint(3)).Return(existing, nil).Once()
	mockRepo.On("GetBySlug", mock.Anything, "calathea").Return(existing, nil).Once()
	mockRepo.On("Update", mock.Anything, existing).Return(nil).Once()

	updated, err := service.UpdateProduct(context.Background(), 3, services.ProductInput{Name: "Calathea", Price: 650, Stock: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(650), updated.Price)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, []uint{3}, productCache.invalidated)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, nil, 5)

	mockRepo.On("Delete", mock.Anything, uint(1)).Return(nil).Once()
	err := service.DeleteProduct(context.Background(), 1)
	assert.NoError(t, err)

	mockRepo.On("Delete", mock.Anything, uint(99)).Return(fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	err = service.DeleteProduct(context.Background(), 99)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeProductNotFound))

	mockRepo.On("Delete", mock.Anything, uint(5)).Return(errors.New("db closed")).Once()
	err = service.DeleteProduct(context.Background(), 5)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
	mockRepo.AssertExpectations(t)
}

func TestProductService_Search(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, nil, 5)

	result, err := service.Search(context.Background(), " a ", 0)
	require.NoError(t, err)
	assert.Empty(t, result.Products)
	assert.Zero(t, result.Total)

	hits := []models.Product{{ID: 2, Name: "Philodendron"}}
	mockRepo.On("Search", mock.Anything, "philo", 12).Return(hits, int64(3), nil).Once()
	result, err = service.Search(context.Background(), "philo", 0)
	require.NoError(t, err)
	assert.Equal(t, hits, result.Products)
	assert.Equal(t, int64(3), result.Total)
	mockRepo.AssertExpectations(t)
}

func TestProductService_LowStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, nil, 3)

	mockRepo.On("LowStock", mock.Anything, 3, 100).Return([]models.Product{{ID: 1, Stock: 0}}, nil).Once()
	mockRepo.On("CountLowStock", mock.Anything, 3).Return(int64(1), nil).Once()

	low, err := service.LowStock(context.Background())
	require.NoError(t, err)
	assert.Len(t, low, 1)

	count, err := service.CountLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	mockRepo.AssertExpectations(t)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Monstera Deliciosa":       "monstera-deliciosa",
		"  Crème   Brûlée  Fern ":  "creme-brulee-fern",
		"Фикус Бенджамина":         "фикус-бенджамина",
		"Ёлка -- новогодняя!":      "елка-новогодняя",
		"Зелёный чай":              "зеленыи-чаи",
		"snake_case\tname":         "snakecase-name",
		"Pilea (Chinese money) #1": "pilea-chinese-money-1",
		"---":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, services.Slugify(in), in)
	}
}

func TestProductService_CreateProductChecksCategory(t *testing.T) {
	mockRepo := new(MockProductRepository)
	categories := new(MockCategoryRepository)
	service := services.NewProductService(mockRepo, categories, nil, nil, 5)

	ferns := &models.Category{ID: 3, Name: "Ferns", Slug: "ferns"}
	categories.On("GetByID", mock.Anything, uint(3)).Return(ferns, nil).Once()
	categories.On("GetByID", mock.Anything, uint(4)).
		Return(nil, fmt.Errorf("category where id = ? 4: %w", repositories.ErrNotFound)).Once()
	mockRepo.On("GetBySlug", mock.Anything, "boston").Return(nil, repositories.ErrNotFound).Twice()
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.CategoryID != nil && *p.CategoryID == 3
	})).Return(nil).Once()

	known, unknown := uint(3), uint(4)
	product, err := service.CreateProduct(context.Background(), services.ProductInput{Name: "Boston", Price: 100, CategoryID: &known})
	require.NoError(t, err)
	assert.Equal(t, "Ferns", product.Category.Name)

	_, err = service.CreateProduct(context.Background(), services.ProductInput{Name: "Boston", Price: 100, CategoryID: &unknown})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	mockRepo.AssertExpectations(t)
	categories.AssertExpectations(t)
}
