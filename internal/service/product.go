package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProductCacheKey is the redis key of a cached public product.
func ProductCacheKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

type ProductService struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
	log         *slog.Logger
}

func NewProductService(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	log *slog.Logger,
) *ProductService {
	return &ProductService{productRepo: productRepo, userRepo: userRepo, redisClient: redisClient, cacheTTL: cacheTTL, log: log}
}

// Browse lists the public catalog: active, in-stock products, newest first.
func (s *ProductService) Browse(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	filter, err := buildFilter(req)
	if err != nil {
		return nil, err
	}
	products, total, err := s.productRepo.Browse(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("browse products: %w", err)
	}
	return &dto.ProductListResponse{
		Products: dto.ToProductResponses(products),
		Total:    total,
		Page:     filter.Offset/filter.Limit + 1,
		Limit:    filter.Limit,
	}, nil
}

func buildFilter(req dto.ListProductsRequest) (model.ProductFilter, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	f := model.ProductFilter{
		Search:   strings.TrimSpace(req.Search),
		SellerID: req.SellerID,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	if req.Category != "" {
		c := model.Category(req.Category)
		if !c.Valid() {
			return f, newValidationError("category", "unknown category")
		}
		f.Category = c
	}
	if req.MinPrice != "" {
		v, err := decimal.NewFromString(req.MinPrice)
		if err != nil {
			return f, newValidationError("min_price", "must be a decimal number")
		}
		f.MinPrice = &v
	}
	if req.MaxPrice != "" {
		v, err := decimal.NewFromString(req.MaxPrice)
		if err != nil {
			return f, newValidationError("max_price", "must be a decimal number")
		}
		f.MaxPrice = &v
	}
	return f, nil
}

// Market returns a seller's storefront grouped by category, in catalog category order.
func (s *ProductService) Market(ctx context.Context, sellerID int64) (*model.Seller, []dto.MarketSection, error) {
	seller, err := s.userRepo.GetSeller(ctx, sellerID)
	if err != nil {
		return nil, nil, fmt.Errorf("get seller: %w", err)
	}
	if seller == nil {
		return nil, nil, ErrSellerNotFound
	}

	products, err := s.productRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list seller products: %w", err)
	}

	byCategory := make(map[model.Category][]dto.ProductResponse)
	for i := range products {
		p := &products[i]
		byCategory[p.Category] = append(byCategory[p.Category], dto.ToProductResponse(p))
	}
	sections := make([]dto.MarketSection, 0, len(byCategory))
	for _, c := range model.Categories {
		if items, ok := byCategory[c]; ok {
			sections = append(sections, dto.MarketSection{Category: c, Products: items})
		}
	}
	return seller, sections, nil
}

// GetByID returns an active product, served from redis when cached.
func (s *ProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	cacheKey := ProductCacheKey(id)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Bytes(); err == nil {
			var p model.Product
			if json.Unmarshal(cached, &p) == nil {
				return &p, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(product); err == nil {
			if err := s.redisClient.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				s.log.Warn("cache product", "product_id", id, "error", err)
			}
		}
	}
	return product, nil
}

func (s *ProductService) ListOwn(ctx context.Context, p model.Principal) ([]model.Product, error) {
	if err := requireSeller(p); err != nil {
		return nil, err
	}
	products, err := s.productRepo.ListBySeller(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list own products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Create(ctx context.Context, p model.Principal, req dto.ProductRequest) (*model.Product, error) {
	if err := requireSeller(p); err != nil {
		return nil, err
	}
	if err := validateProduct(&req); err != nil {
		return nil, err
	}
	seller, err := s.userRepo.GetSeller(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get seller: %w", err)
	}
	if seller == nil {
		return nil, ErrSellerNotFound
	}

	product := &model.Product{
		SellerID:      seller.ID,
		PublisherName: seller.DisplayName(),
		Name:          req.Name,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Quantity:      req.Quantity,
		Price:         req.Price,
		Category:      req.Category,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.log.Info("product created", "product_id", product.ID, "seller_id", seller.ID)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, p model.Principal, id int64, req dto.ProductRequest) (*model.Product, error) {
	if err := requireSeller(p); err != nil {
		return nil, err
	}
	if err := validateProduct(&req); err != nil {
		return nil, err
	}
	product, err := s.ownedProduct(ctx, p, id)
	if err != nil {
		return nil, err
	}

	product.Name = req.Name
	product.Description = req.Description
	product.ImageURL = req.ImageURL
	product.Quantity = req.Quantity
	product.Price = req.Price
	product.Category = req.Category
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.InvalidateCache(ctx, id)
	return product, nil
}

// SoftDelete hides the product from the catalog and carts. Order history keeps referencing it.
func (s *ProductService) SoftDelete(ctx context.Context, p model.Principal, id int64) error {
	if err := requireSeller(p); err != nil {
		return err
	}
	ok, err := s.productRepo.SoftDelete(ctx, id, p.ID)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if !ok {
		return ErrProductNotFound
	}
	s.InvalidateCache(ctx, id)
	s.log.Info("product deactivated", "product_id", id, "seller_id", p.ID)
	return nil
}

// Purge hard-deletes a product. Refused while any order line references it.
func (s *ProductService) Purge(ctx context.Context, p model.Principal, id int64) error {
	if err := requireSuperAdmin(p); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrProductNotFound
		case errors.Is(err, repository.ErrProductReferenced):
			return ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.InvalidateCache(ctx, id)
	s.log.Info("product purged", "product_id", id)
	return nil
}

func (s *ProductService) InvalidateCache(ctx context.Context, ids ...int64) {
	if s.redisClient == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ProductCacheKey(id)
	}
	if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn("invalidate product cache", "error", err)
	}
}

// ownedProduct loads an active product of the seller. Other sellers' products read as missing.
func (s *ProductService) ownedProduct(ctx context.Context, p model.Principal, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive || product.SellerID != p.ID {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// maxPrice is the largest value a NUMERIC(10, 2) column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

func validateProduct(req *dto.ProductRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = model.Category(strings.ToLower(string(req.Category)))

	verr := &ValidationError{Fields: map[string]string{}}
	if err := validateStruct(req); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		verr = ve
	}
	if !req.Price.GreaterThan(decimal.Zero) {
		verr.Fields["price"] = "must be greater than 0"
	} else if req.Price.GreaterThan(maxPrice) {
		verr.Fields["price"] = "must be at most " + maxPrice.StringFixed(2)
	} else if !req.Price.Equal(req.Price.Round(2)) {
		verr.Fields["price"] = "must have at most 2 decimal places"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
