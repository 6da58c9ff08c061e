package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/go-chi/chi/v5"
)

// respondWithJSON - отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// respondWithError - отправляет JSON-ответ с ошибкой. Доменные ошибки
// отдаются со своим статусом и деталями, остальные скрываются за 500.
func respondWithError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.Error("internal error", "error", err)
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"}, logger)
		return
	}
	if de.Code == domain.CodeInternal {
		logger.Error("internal error", "error", err)
	}
	respondWithJSON(w, domain.StatusOf(err), errorResponse{Error: de.Message, Details: de.Details}, logger)
}

// decodeJSON читает тело запроса. Неизвестные поля (например, user) игнорируются.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ValidationFailed("request body is empty", nil)
		}
		return domain.ValidationFailed("malformed JSON: "+err.Error(), nil)
	}
	return nil
}

// idParam разбирает числовой {id} из пути; некорректный id неотличим от отсутствующего.
func idParam(r *http.Request, entity string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NotFound(entity)
	}
	return id, nil
}

// parsePage читает page и per_page; без per_page возвращаются все строки.
func parsePage(r *http.Request) (domain.Page, error) {
	q := r.URL.Query()
	if q.Get("per_page") == "" {
		return domain.Page{}, nil
	}

	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage <= 0 {
		return domain.Page{}, domain.FieldError("per_page", "must be a positive integer")
	}
	page := 1
	if raw := q.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page <= 0 {
			return domain.Page{}, domain.FieldError("page", "must be a positive integer")
		}
	}
	return domain.Page{Limit: perPage, Offset: (page - 1) * perPage}, nil
}

// parseIDList разбирает "1,2,3" из query-параметра.
func parseIDList(r *http.Request, param string) ([]int64, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, domain.FieldError(param, "must be a comma separated list of ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}
