package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/google/uuid"
)

const badCredentialsMsg = "unable to authenticate with provided credentials"

type userUseCase struct {
	users       ports.UserStorage
	credentials CredentialService
	validator   InputValidator
	logger      *slog.Logger
}

// NewUserUseCase создает новый экземпляр UserUseCase
func NewUserUseCase(users ports.UserStorage, credentials CredentialService, validator InputValidator, logger *slog.Logger) UserUseCase {
	return &userUseCase{
		users:       users,
		credentials: credentials,
		validator:   validator,
		logger:      logger,
	}
}

func (uc *userUseCase) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := uc.validator.Validate(in); err != nil {
		return nil, err
	}
	return uc.create(ctx, in, false)
}

func (uc *userUseCase) CreateSuperuser(ctx context.Context, email, password string) (*domain.User, error) {
	in := domain.RegisterInput{Email: strings.TrimSpace(email), Password: password}
	if err := uc.validator.Validate(in); err != nil {
		return nil, err
	}
	return uc.create(ctx, in, true)
}

func (uc *userUseCase) create(ctx context.Context, in domain.RegisterInput, superuser bool) (*domain.User, error) {
	hash, err := uc.credentials.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("usecase: create user: %w", err)
	}

	user := &domain.User{
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Name:         in.Name,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("usecase: create user: %w", err)
	}
	return user, nil
}

// IssueToken не различает неизвестный email, неактивного пользователя и неверный пароль.
func (uc *userUseCase) IssueToken(ctx context.Context, in domain.CredentialsInput) (string, error) {
	if err := uc.validator.Validate(in); err != nil {
		return "", err
	}

	user, err := uc.users.GetUserByEmail(ctx, domain.NormalizeEmail(in.Email))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "", domain.ValidationFailed(badCredentialsMsg, nil)
	case err != nil:
		return "", fmt.Errorf("usecase: issue token: %w", err)
	}

	if !user.IsActive || !uc.credentials.CheckPassword(in.Password, user.PasswordHash) {
		uc.logger.Info("token request rejected", "user_id", user.ID)
		return "", domain.ValidationFailed(badCredentialsMsg, nil)
	}

	token, err := uc.credentials.GenerateToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("usecase: issue token: %w", err)
	}
	return token, nil
}

func (uc *userUseCase) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	id, err := uc.credentials.VerifyToken(token)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthenticated.WithCause(err)
	}

	user, err := uc.users.GetUserByID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return uuid.Nil, domain.ErrUnauthenticated
	case err != nil:
		return uuid.Nil, fmt.Errorf("usecase: authenticate: %w", err)
	case !user.IsActive:
		return uuid.Nil, domain.Unauthenticated("user inactive or deleted")
	}
	return user.ID, nil
}

func (uc *userUseCase) GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := uc.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: get profile: %w", err)
	}
	return user, nil
}

func (uc *userUseCase) UpdateProfile(ctx context.Context, id uuid.UUID, in domain.UserUpdate, partial bool) (*domain.User, error) {
	if err := uc.validator.Validate(in); err != nil {
		return nil, err
	}
	if !partial {
		missing := map[string]string{}
		if in.Email == nil {
			missing["email"] = "is required"
		}
		if in.Password == nil {
			missing["password"] = "is required"
		}
		if in.Name == nil {
			missing["name"] = "is required"
		}
		if len(missing) > 0 {
			return nil, domain.ValidationFailed("validation failed", missing)
		}
	}

	user, err := uc.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: update profile: %w", err)
	}

	if in.Email != nil {
		user.Email = domain.NormalizeEmail(*in.Email)
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := uc.credentials.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("usecase: update profile: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := uc.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("usecase: update profile: %w", err)
	}
	return user, nil
}
