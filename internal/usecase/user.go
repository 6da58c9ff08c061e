package usecase

import (
	"context"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/google/uuid"
)

// CredentialService хеширует пароли и выпускает/проверяет токены.
// Реализуется *auth.Service.
type CredentialService interface {
	HashPassword(password string) (string, error)
	CheckPassword(password, hash string) bool
	GenerateToken(userID uuid.UUID) (string, error)
	VerifyToken(token string) (uuid.UUID, error)
}

// UserUseCase определяет бизнес-логику работы с пользователями
type UserUseCase interface {
	// Register создает обычного активного пользователя.
	Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error)

	// CreateSuperuser создает пользователя с флагами is_staff и is_superuser.
	CreateSuperuser(ctx context.Context, email, password string) (*domain.User, error)

	// IssueToken проверяет email и пароль и выпускает bearer-токен.
	IssueToken(ctx context.Context, in domain.CredentialsInput) (string, error)

	// Authenticate возвращает id активного пользователя по токену.
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)

	GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// UpdateProfile меняет переданные поля; при partial=false email, password и name обязательны.
	UpdateProfile(ctx context.Context, id uuid.UUID, in domain.UserUpdate, partial bool) (*domain.User, error)
}
