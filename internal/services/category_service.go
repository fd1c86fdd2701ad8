package services

import (
	"context"
	"errors"
	"strings"

	"plantshop/internal/cache"
	"plantshop/internal/models"
	"plantshop/internal/repositories"
	pkgerrors "plantshop/pkg/errors"
	"plantshop/pkg/logger"
)

// CategoryService manages catalog categories.
type CategoryService struct {
	repo     repositories.CategoryRepository
	products repositories.ProductRepository
	cache    cache.ProductCache
	logg     *logger.Logger
}

func NewCategoryService(repo repositories.CategoryRepository, products repositories.ProductRepository, productCache cache.ProductCache, logg *logger.Logger) *CategoryService {
	if productCache == nil {
		productCache = cache.NopProductCache{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &CategoryService{repo: repo, products: products, cache: productCache, logg: logg}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logg.Error(ctx, "failed to list categories", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list categories")
	}
	return categories, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := &models.Category{}
	if err := s.apply(ctx, category, name); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, category); err != nil {
		s.logg.Error(ctx, "failed to create category", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create category")
	}
	return category, nil
}

// UpdateCategory renames a category. Cached products embedding it are dropped.
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(ctx, id, err)
	}
	if err := s.apply(ctx, category, name); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, s.notFound(ctx, id, err)
	}
	s.invalidateProducts(ctx, id)
	return category, nil
}

// DeleteCategory removes a category; its products stay in the catalog uncategorised.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	ids, err := s.products.IDsInCategory(ctx, id)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "category_id", id), "failed to list category products", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.notFound(ctx, id, err)
	}
	if len(ids) > 0 {
		if err := s.cache.Invalidate(ctx, ids...); err != nil {
			s.logg.Warn(ctx, "product cache invalidation failed", err)
		}
	}
	return nil
}

func (s *CategoryService) apply(ctx context.Context, category *models.Category, name string) error {
	name = strings.TrimSpace(name)
	slug := Slugify(name)
	if name == "" || slug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	existing, err := s.repo.GetBySlug(ctx, slug)
	switch {
	case err == nil && existing.ID != category.ID:
		return pkgerrors.Newf(pkgerrors.CodeConflict, "a category named %q already exists", existing.Name)
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		s.logg.Error(ctx, "failed to check category name", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check category name")
	}
	category.Name = name
	category.Slug = slug
	return nil
}

func (s *CategoryService) invalidateProducts(ctx context.Context, id uint) {
	ctx = s.logg.WithField(ctx, "category_id", id)
	ids, err := s.products.IDsInCategory(ctx, id)
	if err != nil {
		s.logg.Warn(ctx, "failed to list category products", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logg.Warn(ctx, "product cache invalidation failed", err)
	}
}

func (s *CategoryService) notFound(ctx context.Context, id uint, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeCategoryNotFound, "category %d not found", id)
	}
	s.logg.Error(ctx, "failed to load category", err)
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
}
