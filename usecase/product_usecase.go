package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"camgrocer/dao"
	"camgrocer/model"
	"camgrocer/pkg/notify"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	// MaxPrice caps listed prices, in FCFA.
	MaxPrice = 1_000_000_000
)

// ProductInput carries the editable product fields. Prices are whole FCFA.
type ProductInput struct {
	StoreID     string `json:"store_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int    `json:"price"`
	Unit        string `json:"unit"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"image_url"`
	Negotiable  bool   `json:"negotiable"`
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	case in.Price <= 0:
		return fmt.Errorf("%w: price must be a positive whole amount", ErrInvalidInput)
	case in.Price > MaxPrice:
		return fmt.Errorf("%w: price cannot exceed %d", ErrInvalidInput, MaxPrice)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidInput)
	case strings.TrimSpace(in.Unit) == "":
		return fmt.Errorf("%w: unit is required", ErrInvalidInput)
	}
	return nil
}

type ProductUsecase struct {
	products *dao.ProductRepository
	stores   *dao.StoreRepository
	users    *dao.UserRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewProductUsecase(products *dao.ProductRepository, stores *dao.StoreRepository, users *dao.UserRepository, notifier notify.Notifier, logger *zap.Logger) *ProductUsecase {
	return &ProductUsecase{products: products, stores: stores, users: users, notifier: notifier, logger: logger.Named("product")}
}

// Create lists a product in a store the caller manages. New products wait
// for admin approval.
func (u *ProductUsecase) Create(ctx context.Context, actor Actor, in ProductInput) (*model.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	store, err := u.stores.GetByID(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("store %s: %w", in.StoreID, ErrNotFound)
	}
	if !canManageStore(&actor, store) {
		return nil, fmt.Errorf("store %s: %w", in.StoreID, ErrForbidden)
	}

	now := time.Now().UTC()
	p := &model.Product{
		ID:        newID(),
		StoreID:   store.ID,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProductInput(p, in)
	if err := u.products.Insert(ctx, p); err != nil {
		return nil, err
	}
	u.logger.Info("product created", zap.String("product_id", p.ID), zap.String("store_id", p.StoreID))
	return p, nil
}

// Get returns a publicly visible product, or any product to the people who
// manage its store.
func (u *ProductUsecase) Get(ctx context.Context, actor *Actor, id string) (*model.Product, error) {
	p, store, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if isPublic(p, store) || canManageStore(actor, store) {
		return p, nil
	}
	return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
}

// ListPublic returns approved products of approved stores.
func (u *ProductUsecase) ListPublic(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	f.PublicOnly = true
	f.Status = ""
	f.Limit, f.Offset = page(f.Limit, f.Offset)
	return u.products.List(ctx, f)
}

// ListByStore returns every product of the store, whatever its status.
func (u *ProductUsecase) ListByStore(ctx context.Context, actor Actor, storeID string) ([]model.Product, error) {
	store, err := u.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("store %s: %w", storeID, ErrNotFound)
	}
	if !canManageStore(&actor, store) {
		return nil, fmt.Errorf("store %s: %w", storeID, ErrForbidden)
	}
	return u.products.List(ctx, model.ProductFilter{StoreID: storeID})
}

func (u *ProductUsecase) ListAll(ctx context.Context, status string) ([]model.Product, error) {
	return u.products.List(ctx, model.ProductFilter{Status: status})
}

// Update edits a product. The store cannot be changed. When a store owner
// changes what customers see of a reviewed product, it goes back to pending
// review; stock and the negotiable flag can change freely.
func (u *ProductUsecase) Update(ctx context.Context, actor Actor, id string, in ProductInput) (*model.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := u.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	before := *p
	applyProductInput(p, in)
	if !actor.IsAdmin() && p.Status != model.StatusPending && listingChanged(&before, p) {
		p.Status = model.StatusPending
		u.logger.Info("product back in review", zap.String("product_id", p.ID), zap.String("by", actor.ID))
	}
	p.UpdatedAt = time.Now().UTC()
	if err := u.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *ProductUsecase) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := u.manageable(ctx, actor, id); err != nil {
		return err
	}
	if err := u.products.Delete(ctx, id); err != nil {
		return err
	}
	u.logger.Info("product deleted", zap.String("product_id", id), zap.String("by", actor.ID))
	return nil
}

func (u *ProductUsecase) Approve(ctx context.Context, id string) (*model.Product, error) {
	return u.review(ctx, id, model.StatusApproved, notify.ProductApproved)
}

func (u *ProductUsecase) Reject(ctx context.Context, id string) (*model.Product, error) {
	return u.review(ctx, id, model.StatusRejected, notify.ProductRejected)
}

func (u *ProductUsecase) review(ctx context.Context, id, status, event string) (*model.Product, error) {
	p, store, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	if err := u.products.Update(ctx, p); err != nil {
		return nil, err
	}

	u.logger.Info("product reviewed", zap.String("product_id", id), zap.String("status", status))
	e := notify.Event{Type: event, SubjectID: p.ID, Data: map[string]any{"product": p.Name, "store": store.Name}}
	if owner, err := u.users.GetByID(ctx, store.OwnerID); err == nil && owner != nil {
		e.Recipient = owner.Email
	}
	publish(ctx, u.notifier, u.logger, e)
	return p, nil
}

func (u *ProductUsecase) manageable(ctx context.Context, actor Actor, id string) (*model.Product, error) {
	p, store, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageStore(&actor, store) {
		return nil, fmt.Errorf("product %s: %w", id, ErrForbidden)
	}
	return p, nil
}

// load fetches the product and the store it belongs to.
func (u *ProductUsecase) load(ctx context.Context, id string) (*model.Product, *model.Store, error) {
	return loadProduct(ctx, u.products, u.stores, id)
}

func loadProduct(ctx context.Context, products *dao.ProductRepository, stores *dao.StoreRepository, id string) (*model.Product, *model.Store, error) {
	p, err := products.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	store, err := stores.GetByID(ctx, p.StoreID)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, fmt.Errorf("store %s: %w", p.StoreID, ErrNotFound)
	}
	return p, store, nil
}

func isPublic(p *model.Product, s *model.Store) bool {
	return p.Status == model.StatusApproved && s.Status == model.StatusApproved
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func listingChanged(a, b *model.Product) bool {
	return a.Name != b.Name ||
		a.Description != b.Description ||
		a.Category != b.Category ||
		a.Price != b.Price ||
		a.Unit != b.Unit ||
		a.ImageURL != b.ImageURL
}

func applyProductInput(p *model.Product, in ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Category = strings.TrimSpace(in.Category)
	p.Price = in.Price
	p.Unit = strings.TrimSpace(in.Unit)
	p.Stock = in.Stock
	p.ImageURL = strings.TrimSpace(in.ImageURL)
	p.Negotiable = in.Negotiable
}
