package services

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"plantshop/internal/cache"
	"plantshop/internal/models"
	"plantshop/internal/repositories"
	pkgerrors "plantshop/pkg/errors"
	"plantshop/pkg/logger"

	"golang.org/x/text/unicode/norm"
)

const (
	defaultSearchLimit = 12
	maxSearchLimit     = 100
	lowStockLimit      = 100
	minSearchQuery     = 2
)

// ProductInput carries the editable product fields.
type ProductInput struct {
	Name        string
	Description string
	SKU         string
	Price       int64
	Stock       int
	Discount    int
	CoverImage  string
	IsFeatured  bool
	// CategoryID of nil or 0 leaves the product uncategorised.
	CategoryID *uint
}

// SearchResult is one page of search hits plus the total number of matches.
type SearchResult struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo              repositories.ProductRepository
	categories        repositories.CategoryRepository
	cache             cache.ProductCache
	logg              *logger.Logger
	lowStockThreshold int
}

// NewProductService creates a new ProductService.
// A nil categories repository skips category checks.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository, productCache cache.ProductCache, logg *logger.Logger, lowStockThreshold int) *ProductService {
	if productCache == nil {
		productCache = cache.NopProductCache{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &ProductService{
		repo:              repo,
		categories:        categories,
		cache:             productCache,
		logg:              logg,
		lowStockThreshold: lowStockThreshold,
	}
}

// ListProducts retrieves all products.
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to list products")
	}
	return products, nil
}

// GetProduct reads through the cache.
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if product, ok := s.cache.Get(ctx, id); ok {
		return product, nil
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(ctx, id, err)
	}
	if err := s.cache.Set(ctx, product); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", id), "product cache write failed", err)
	}
	return product, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	product := &models.Product{}
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, s.internal(ctx, err, "failed to create product")
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(ctx, id, err)
	}
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.notFound(ctx, id, err)
		}
		return nil, s.internal(ctx, err, "failed to update product")
	}
	s.invalidate(ctx, id)
	return product, nil
}

// DeleteProduct soft-deletes a product. Existing orders keep their snapshot.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.notFound(ctx, id, err)
	}
	s.invalidate(ctx, id)
	return nil
}

// Search returns up to limit products matching query. Queries shorter than two
// characters match nothing.
func (s *ProductService) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchQuery {
		return &SearchResult{Products: []models.Product{}}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	products, total, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to search products")
	}
	return &SearchResult{Products: products, Total: total}, nil
}

// LowStock lists products at or below the configured threshold.
func (s *ProductService) LowStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.LowStock(ctx, s.lowStockThreshold, lowStockLimit)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to list low stock products")
	}
	return products, nil
}

func (s *ProductService) CountLowStock(ctx context.Context) (int64, error) {
	count, err := s.repo.CountLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return 0, s.internal(ctx, err, "failed to count low stock products")
	}
	return count, nil
}

func (s *ProductService) apply(ctx context.Context, product *models.Product, in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	slug := Slugify(name)
	if name == "" || slug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if in.Price < 0 || in.Stock < 0 || in.Discount < 0 || in.Discount > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price and stock must not be negative, discount must be between 0 and 100")
	}

	existing, err := s.repo.GetBySlug(ctx, slug)
	switch {
	case err == nil && existing.ID != product.ID:
		return pkgerrors.Newf(pkgerrors.CodeConflict, "a product named %q already exists", existing.Name)
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return s.internal(ctx, err, "failed to check product name")
	}

	category, err := s.category(ctx, in.CategoryID)
	if err != nil {
		return err
	}

	product.Name = name
	product.Slug = slug
	product.Description = in.Description
	product.SKU = in.SKU
	product.Price = in.Price
	product.Stock = in.Stock
	product.Discount = in.Discount
	product.CoverImage = in.CoverImage
	product.IsFeatured = in.IsFeatured
	product.Category = category
	product.CategoryID = nil
	if category != nil {
		product.CategoryID = &category.ID
	}
	return nil
}

func (s *ProductService) category(ctx context.Context, id *uint) (*models.Category, error) {
	if id == nil || *id == 0 || s.categories == nil {
		return nil, nil
	}
	category, err := s.categories.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "category %d does not exist", *id)
		}
		return nil, s.internal(ctx, err, "failed to load category")
	}
	return category, nil
}

func (s *ProductService) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", id), "product cache invalidation failed", err)
	}
}

func (s *ProductService) notFound(ctx context.Context, id uint, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeProductNotFound, "product %d not found", id)
	}
	return s.internal(ctx, err, "failed to load product")
}

func (s *ProductService) internal(ctx context.Context, err error, msg string) error {
	s.logg.Error(ctx, msg, err)
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

// Slugify lower-cases name, decomposes it and drops combining marks (so "ё"
// becomes "е"), turns whitespace runs into dashes and removes everything outside
// [a-z0-9а-яё-].
func Slugify(name string) string {
	var b strings.Builder
	space := false
	for _, r := range norm.NFD.String(strings.ToLower(name)) {
		switch {
		case r >= '\u0300' && r <= '\u036f':
			continue
		case unicode.IsSpace(r):
			if !space {
				b.WriteRune('-')
			}
			space = true
			continue
		case r == '-' || isSlugRune(r):
			b.WriteRune(r)
		}
		space = false
	}

	var out strings.Builder
	dash := false
	for _, r := range b.String() {
		if r == '-' {
			if !dash {
				out.WriteRune(r)
			}
			dash = true
			continue
		}
		dash = false
		out.WriteRune(r)
	}
	return strings.Trim(out.String(), "-")
}

func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || (r >= 'а' && r <= 'я') || r == 'ё'
}
