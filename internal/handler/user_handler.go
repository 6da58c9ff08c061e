package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

// UserHandler - регистрация, выпуск токена и профиль текущего пользователя.
type UserHandler struct {
	userUseCase usecase.UserUseCase
	logger      *slog.Logger
}

// NewUserHandler создаёт новый экземпляр UserHandler.
func NewUserHandler(uc usecase.UserUseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{userUseCase: uc, logger: logger}
}

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// CreateUser - POST /api/user/create.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	user, err := h.userUseCase.Register(r.Context(), in)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	respondWithJSON(w, http.StatusCreated, userResponse{Email: user.Email, Name: user.Name}, h.logger)
}

// CreateToken - POST /api/user/token.
func (h *UserHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var in domain.CredentialsInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	token, err := h.userUseCase.IssueToken(r.Context(), in)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, tokenResponse{Token: token}, h.logger)
}

// Me - GET /api/user/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())

	user, err := h.userUseCase.GetProfile(r.Context(), id)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, userResponse{Email: user.Email, Name: user.Name}, h.logger)
}

// UpdateMe - PUT (все поля) и PATCH (переданные поля) /api/user/me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())

	var in domain.UserUpdate
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	user, err := h.userUseCase.UpdateProfile(r.Context(), id, in, r.Method == http.MethodPatch)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, userResponse{Email: user.Email, Name: user.Name}, h.logger)
}
