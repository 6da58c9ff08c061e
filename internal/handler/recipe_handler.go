package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

// multipart-заголовки сверх самого файла
const multipartOverhead = 1 << 20

// RecipeHandler - обработчик HTTP-запросов для рецептов.
type RecipeHandler struct {
	recipeUseCase  usecase.RecipeUseCase
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewRecipeHandler создаёт новый экземпляр RecipeHandler.
func NewRecipeHandler(uc usecase.RecipeUseCase, maxUploadBytes int64, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipeUseCase: uc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// recipeSummary - элемент списка, без description и image.
type recipeSummary struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       string              `json:"price"`
	Link        string              `json:"link"`
	Tags        []domain.Tag        `json:"tags"`
	Ingredients []domain.Ingredient `json:"ingredients"`
}

type recipeDetail struct {
	recipeSummary
	Description string `json:"description"`
	Image       string `json:"image"`
}

type recipeImage struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

func toSummary(r *domain.Recipe) recipeSummary {
	s := recipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
	}
	if s.Tags == nil {
		s.Tags = []domain.Tag{}
	}
	if s.Ingredients == nil {
		s.Ingredients = []domain.Ingredient{}
	}
	return s
}

func toDetail(r *domain.Recipe) recipeDetail {
	return recipeDetail{recipeSummary: toSummary(r), Description: r.Description, Image: r.Image}
}

// ListRecipes - GET /recipes, новые первыми; фильтры tags и ingredients.
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())

	page, err := parsePage(r)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	var filter domain.RecipeFilter
	if filter.TagIDs, err = parseIDList(r, "tags"); err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	if filter.IngredientIDs, err = parseIDList(r, "ingredients"); err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	recipes, err := h.recipeUseCase.ListRecipes(r.Context(), ownerID, filter, page)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	out := make([]recipeSummary, 0, len(recipes))
	for i := range recipes {
		out = append(out, toSummary(&recipes[i]))
	}
	respondWithJSON(w, http.StatusOK, out, h.logger)
}

// GetRecipe - GET /recipes/{id}.
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())
	id, err := idParam(r, "recipe")
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	recipe, err := h.recipeUseCase.GetRecipe(r.Context(), id, ownerID)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, toDetail(recipe), h.logger)
}

// CreateRecipe - POST /recipes.
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())

	var in domain.RecipeInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	recipe, err := h.recipeUseCase.CreateRecipe(r.Context(), ownerID, in)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, toDetail(recipe), h.logger)
}

// UpdateRecipe - PUT (полное) и PATCH (частичное) /recipes/{id}.
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())
	id, err := idParam(r, "recipe")
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	var in domain.RecipeInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	recipe, err := h.recipeUseCase.UpdateRecipe(r.Context(), id, ownerID, in, r.Method == http.MethodPatch)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, toDetail(recipe), h.logger)
}

// DeleteRecipe - DELETE /recipes/{id}.
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())
	id, err := idParam(r, "recipe")
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	if err := h.recipeUseCase.DeleteRecipe(r.Context(), id, ownerID); err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage - POST /recipes/{id}/upload-image, multipart-поле "image".
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := UserIDFromContext(r.Context())
	id, err := idParam(r, "recipe")
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, domain.FieldError("image", "file is too large"), h.logger)
			return
		}
		respondWithError(w, domain.FieldError("image", "no file was submitted"), h.logger)
		return
	}
	defer file.Close()

	recipe, err := h.recipeUseCase.UploadImage(r.Context(), id, ownerID, file, header.Filename)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, recipeImage{ID: recipe.ID, Image: recipe.Image}, h.logger)
}
