package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sumanskitchen/kitchen-go/internal/crypto"
	"github.com/sumanskitchen/kitchen-go/internal/model"
	"github.com/sumanskitchen/kitchen-go/internal/oauth"
	"github.com/sumanskitchen/kitchen-go/internal/repository"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidCredential  = errors.New("invalid google credential")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrNotFound           = errors.New("user not found")
)

// UserRepository is the account directory the auth flows read and write.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	SetGoogleID(ctx context.Context, id model.ID, googleID string) error
	SetPasswordHash(ctx context.Context, id model.ID, hash string) error
}

// IdentityVerifier checks a third-party sign-in credential.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (oauth.Identity, error)
}

// AuthService handles authentication business logic.
type AuthService struct {
	users    UserRepository
	hasher   *crypto.Hasher
	tokens   *crypto.TokenService
	identity IdentityVerifier
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, hasher *crypto.Hasher, tokens *crypto.TokenService, identity IdentityVerifier, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		identity: identity,
		now:      now,
	}
}

// Register creates a password account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.AuthResponse, error) {
	if err := validateRegistration(req); err != nil {
		return model.AuthResponse{}, err
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return model.AuthResponse{}, ErrDuplicateEmail
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.AuthResponse{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: &hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrDuplicateEmail
		}
		return model.AuthResponse{}, err
	}

	return s.respond(user)
}

// Login authenticates a password account and returns an auth token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	if !user.HasPassword() || !s.hasher.Verify(req.Password, *user.PasswordHash) {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(*user.PasswordHash) {
		s.rehash(ctx, user.ID, req.Password)
	}

	return s.respond(user)
}

func (s *AuthService) rehash(ctx context.Context, id model.ID, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		slog.Warn("rehashing password", "user_id", id, "error", err)
		return
	}
	if err := s.users.SetPasswordHash(ctx, id, hash); err != nil {
		slog.Warn("storing rehashed password", "user_id", id, "error", err)
		return
	}
	slog.Info("password digest upgraded", "user_id", id)
}

// GoogleLogin signs in with a Google ID token, linking or creating the account as needed.
func (s *AuthService) GoogleLogin(ctx context.Context, req model.GoogleAuthRequest) (model.AuthResponse, error) {
	if req.Credential == "" {
		return model.AuthResponse{}, ErrInvalidCredential
	}

	ident, err := s.identity.Verify(ctx, req.Credential)
	if err != nil {
		slog.Debug("google credential rejected", "error", err)
		return model.AuthResponse{}, ErrInvalidCredential
	}

	user, err := s.resolveGoogleUser(ctx, ident)
	if errors.Is(err, errCreateRaced) {
		// A concurrent registration claimed the email or subject; it now resolves
		// through the lookup or link path.
		user, err = s.resolveGoogleUser(ctx, ident)
	}
	if err != nil {
		if errors.Is(err, errCreateRaced) {
			return model.AuthResponse{}, ErrInvalidCredential
		}
		return model.AuthResponse{}, err
	}

	return s.respond(user)
}

var errCreateRaced = errors.New("account created concurrently")

func (s *AuthService) resolveGoogleUser(ctx context.Context, ident oauth.Identity) (*model.User, error) {
	user, err := s.users.GetByGoogleID(ctx, ident.ExternalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user, err = s.users.GetByEmail(ctx, ident.Email)
	switch {
	case err == nil:
		return s.linkGoogle(ctx, user, ident)
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, err
	}

	if len(ident.Email) > maxEmailLength {
		return nil, ErrInvalidCredential
	}
	user = &model.User{
		Email:    ident.Email,
		Name:     clampName(ident.Name),
		GoogleID: &ident.ExternalID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) || errors.Is(err, repository.ErrDuplicateExternalID) {
			return nil, errCreateRaced
		}
		return nil, err
	}

	slog.Info("account created via google", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) linkGoogle(ctx context.Context, user *model.User, ident oauth.Identity) (*model.User, error) {
	if user.GoogleID != nil {
		// The email belongs to an account bound to another Google subject.
		slog.Warn("google subject mismatch for linked account", "user_id", user.ID)
		return nil, ErrInvalidCredential
	}

	err := s.users.SetGoogleID(ctx, user.ID, ident.ExternalID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUserNotFound), errors.Is(err, repository.ErrDuplicateExternalID):
		return nil, errCreateRaced
	default:
		return nil, err
	}

	user.GoogleID = &ident.ExternalID
	slog.Info("google account linked", "user_id", user.ID)
	return user, nil
}

// CurrentUser returns the public view of the account behind userID.
func (s *AuthService) CurrentUser(ctx context.Context, userID model.ID) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrNotFound
		}
		return model.UserResponse{}, err
	}

	return model.NewUserResponse(user), nil
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *AuthService) Authenticate(token string) (model.ID, error) {
	id, err := s.tokens.Verify(token, s.now())
	if err != nil {
		return "", ErrUnauthenticated
	}
	return id, nil
}

func (s *AuthService) respond(user *model.User) (model.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User:  model.NewUserResponse(user),
	}, nil
}
