package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"camgrocer/dao"
	"camgrocer/model"
	"camgrocer/pkg/auth"
	"camgrocer/pkg/notify"

	"go.uber.org/zap"
)

const minPasswordLength = 8

type UserUsecase struct {
	repo     *dao.UserRepository
	tokens   *auth.Issuer
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewUserUsecase(repo *dao.UserRepository, tokens *auth.Issuer, notifier notify.Notifier, logger *zap.Logger) *UserUsecase {
	return &UserUsecase{repo: repo, tokens: tokens, notifier: notifier, logger: logger.Named("user")}
}

// Register creates a customer or store owner account. Admins are only
// created by EnsureAdmin or promoted with SetRole.
func (u *UserUsecase) Register(ctx context.Context, name, email, password, role string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if role == "" {
		role = model.RoleCustomer
	}

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, auth.MaxPasswordBytes)
	}
	if role != model.RoleCustomer && role != model.RoleStoreOwner {
		return nil, fmt.Errorf("%w: role must be customer or store_owner", ErrInvalidInput)
	}

	existing, err := u.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	user, err := u.create(ctx, name, email, password, role)
	if err != nil {
		return nil, err
	}

	u.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", user.Role))
	publish(ctx, u.notifier, u.logger, notify.Event{
		Type:      notify.UserRegistered,
		SubjectID: user.ID,
		Recipient: user.Email,
		Data:      map[string]any{"name": user.Name, "role": user.Role},
	})
	return user, nil
}

// Login checks the credentials and issues a bearer token.
func (u *UserUsecase) Login(ctx context.Context, email, password string) (*model.AuthToken, error) {
	user, err := u.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: wrong email or password", ErrUnauthorized)
	}

	token, expires, err := u.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.AuthToken{Token: token, ExpiresAt: expires, User: user}, nil
}

// Authenticate resolves a bearer token to the caller. The role is read
// from the database so a demotion takes effect before the token expires.
func (u *UserUsecase) Authenticate(ctx context.Context, token string) (*Actor, error) {
	claims, err := u.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	user, err := u.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: account no longer exists", ErrUnauthorized)
	}
	return &Actor{ID: user.ID, Role: user.Role}, nil
}

func (u *UserUsecase) Me(ctx context.Context, id string) (*model.User, error) {
	return u.get(ctx, id)
}

func (u *UserUsecase) ListUsers(ctx context.Context) ([]model.User, error) {
	return u.repo.List(ctx)
}

func (u *UserUsecase) SetRole(ctx context.Context, actor Actor, id, role string) (*model.User, error) {
	switch role {
	case model.RoleCustomer, model.RoleStoreOwner, model.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if id == actor.ID && role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: admins cannot demote themselves", ErrConflict)
	}

	user, err := u.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	user.Role = role
	u.logger.Info("role changed", zap.String("user_id", id), zap.String("role", role), zap.String("by", actor.ID))
	return user, nil
}

func (u *UserUsecase) DeleteUser(ctx context.Context, actor Actor, id string) error {
	if id == actor.ID {
		return fmt.Errorf("%w: admins cannot delete themselves", ErrConflict)
	}
	if _, err := u.get(ctx, id); err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}
	u.logger.Info("user deleted", zap.String("user_id", id), zap.String("by", actor.ID))
	return nil
}

// EnsureAdmin creates the admin account, or promotes an existing account
// with that email. The password of an existing account is left alone.
func (u *UserUsecase) EnsureAdmin(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	existing, err := u.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Role != model.RoleAdmin {
			if err := u.repo.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return nil, err
			}
			existing.Role = model.RoleAdmin
		}
		return existing, nil
	}

	if len(password) < minPasswordLength || len(password) > auth.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: admin password must be %d to %d bytes", ErrInvalidInput, minPasswordLength, auth.MaxPasswordBytes)
	}
	return u.create(ctx, "Administrator", email, password, model.RoleAdmin)
}

func (u *UserUsecase) create(ctx context.Context, name, email, password, role string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}
	user := &model.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := u.repo.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *UserUsecase) get(ctx context.Context, id string) (*model.User, error) {
	user, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
