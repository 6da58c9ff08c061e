package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

// TaxonomyHandler обслуживает /tags и /ingredients; T - domain.Tag или domain.Ingredient.
type TaxonomyHandler[T any] struct {
	uc     usecase.TaxonomyUseCase[T]
	entity string
	logger *slog.Logger
}

// NewTaxonomyHandler создаёт обработчик для тегов или ингредиентов.
func NewTaxonomyHandler[T any](uc usecase.TaxonomyUseCase[T], entity string, logger *slog.Logger) *TaxonomyHandler[T] {
	return &TaxonomyHandler[T]{uc: uc, entity: entity, logger: logger}
}

type renameRequest struct {
	Name *string `json:"name"`
}

// List - GET, по имени в обратном порядке; assigned_only=1 оставляет только привязанные к рецептам.
func (h *TaxonomyHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())
	page, err := parsePage(r)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	items, err := h.uc.List(r.Context(), ownerID, parseBool(r.URL.Query().Get("assigned_only")), page)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	if items == nil {
		items = []T{}
	}
	respondWithJSON(w, http.StatusOK, items, h.logger)
}

func (h *TaxonomyHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())
	id, err := idParam(r, h.entity)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	item, err := h.uc.Get(r.Context(), id, ownerID)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, item, h.logger)
}

// Update - PUT требует name, PATCH без name возвращает объект без изменений.
func (h *TaxonomyHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())
	id, err := idParam(r, h.entity)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	var item *T
	switch {
	case req.Name != nil:
		item, err = h.uc.Rename(r.Context(), id, ownerID, *req.Name)
	case r.Method == http.MethodPatch:
		item, err = h.uc.Get(r.Context(), id, ownerID)
	default:
		err = domain.FieldError("name", "is required")
	}
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, item, h.logger)
}

func (h *TaxonomyHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())
	id, err := idParam(r, h.entity)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	if err := h.uc.Delete(r.Context(), id, ownerID); err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
