package services

import (
	"context"

	"soukly/internal/domain"
	"soukly/internal/pricing"
	"soukly/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
	Views *repos.ViewRepo
	Cfg   pricing.Config
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, views *repos.ViewRepo, cfg pricing.Config) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Views: views, Cfg: cfg}
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Cats.List()
}

// ListRanked returns the listing page ordered by the query-time ranking
// score, personalized by the caller's preferred categories.
func (s *CatalogService) ListRanked(ctx context.Context, preferredCategories []string, categoryID string, page, pageSize int) ([]repos.RankedProduct, error) {
	page, pageSize = paginate(page, pageSize)
	return s.Prods.ListRanked(ctx, s.Cfg, preferredCategories, categoryID, pageSize, (page-1)*pageSize)
}

func (s *CatalogService) Search(ctx context.Context, q, categoryID string, page, pageSize int) ([]domain.Product, error) {
	page, pageSize = paginate(page, pageSize)
	return s.Prods.Search(ctx, q, categoryID, pageSize, (page-1)*pageSize)
}

// GetProduct loads a product and records the view as a behavioral
// signal. A failed view write never blocks the read.
func (s *CatalogService) GetProduct(ctx context.Context, id, sessionID string) (*domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.Views.Record(id, sessionID)
	return p, nil
}

func paginate(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 12
	}
	return page, pageSize
}
