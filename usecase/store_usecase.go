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

// StoreInput carries the editable store fields.
type StoreInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Phone       string `json:"phone"`
	ImageURL    string `json:"image_url"`
}

func (in StoreInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: store name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Location) == "" {
		return fmt.Errorf("%w: store location is required", ErrInvalidInput)
	}
	return nil
}

type StoreUsecase struct {
	stores   *dao.StoreRepository
	users    *dao.UserRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewStoreUsecase(stores *dao.StoreRepository, users *dao.UserRepository, notifier notify.Notifier, logger *zap.Logger) *StoreUsecase {
	return &StoreUsecase{stores: stores, users: users, notifier: notifier, logger: logger.Named("store")}
}

// Create opens a store for the caller. It stays hidden until an admin
// approves it.
func (u *StoreUsecase) Create(ctx context.Context, actor Actor, in StoreInput) (*model.Store, error) {
	if actor.Role != model.RoleStoreOwner && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only store owners can open a store", ErrForbidden)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &model.Store{
		ID:        newID(),
		OwnerID:   actor.ID,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyStoreInput(s, in)
	if err := u.stores.Insert(ctx, s); err != nil {
		return nil, err
	}
	u.logger.Info("store created", zap.String("store_id", s.ID), zap.String("owner_id", s.OwnerID))
	return s, nil
}

// Get returns an approved store, or any store to its owner and admins.
func (u *StoreUsecase) Get(ctx context.Context, actor *Actor, id string) (*model.Store, error) {
	s, err := u.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != model.StatusApproved && !canManageStore(actor, s) {
		return nil, fmt.Errorf("store %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (u *StoreUsecase) ListPublic(ctx context.Context) ([]model.Store, error) {
	return u.stores.List(ctx, "", model.StatusApproved)
}

func (u *StoreUsecase) ListMine(ctx context.Context, actor Actor) ([]model.Store, error) {
	return u.stores.List(ctx, actor.ID, "")
}

func (u *StoreUsecase) ListAll(ctx context.Context, status string) ([]model.Store, error) {
	return u.stores.List(ctx, "", status)
}

func (u *StoreUsecase) Update(ctx context.Context, actor Actor, id string, in StoreInput) (*model.Store, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	s, err := u.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	applyStoreInput(s, in)
	s.UpdatedAt = time.Now().UTC()
	if err := u.stores.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete removes the store and all of its products.
func (u *StoreUsecase) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := u.manageable(ctx, actor, id); err != nil {
		return err
	}
	if err := u.stores.Delete(ctx, id); err != nil {
		return err
	}
	u.logger.Info("store deleted", zap.String("store_id", id), zap.String("by", actor.ID))
	return nil
}

func (u *StoreUsecase) Approve(ctx context.Context, id string) (*model.Store, error) {
	return u.review(ctx, id, model.StatusApproved, notify.StoreApproved)
}

func (u *StoreUsecase) Reject(ctx context.Context, id string) (*model.Store, error) {
	return u.review(ctx, id, model.StatusRejected, notify.StoreRejected)
}

func (u *StoreUsecase) review(ctx context.Context, id, status, event string) (*model.Store, error) {
	s, err := u.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	if err := u.stores.Update(ctx, s); err != nil {
		return nil, err
	}

	u.logger.Info("store reviewed", zap.String("store_id", id), zap.String("status", status))
	e := notify.Event{Type: event, SubjectID: s.ID, Data: map[string]any{"store": s.Name}}
	if owner, err := u.users.GetByID(ctx, s.OwnerID); err == nil && owner != nil {
		e.Recipient = owner.Email
	}
	publish(ctx, u.notifier, u.logger, e)
	return s, nil
}

func (u *StoreUsecase) manageable(ctx context.Context, actor Actor, id string) (*model.Store, error) {
	s, err := u.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageStore(&actor, s) {
		return nil, fmt.Errorf("store %s: %w", id, ErrForbidden)
	}
	return s, nil
}

func (u *StoreUsecase) get(ctx context.Context, id string) (*model.Store, error) {
	s, err := u.stores.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("store %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func canManageStore(actor *Actor, s *model.Store) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || actor.ID == s.OwnerID
}

func applyStoreInput(s *model.Store, in StoreInput) {
	s.Name = strings.TrimSpace(in.Name)
	s.Description = strings.TrimSpace(in.Description)
	s.Location = strings.TrimSpace(in.Location)
	s.Phone = strings.TrimSpace(in.Phone)
	s.ImageURL = strings.TrimSpace(in.ImageURL)
}
