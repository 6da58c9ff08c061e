package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps - зависимости HTTP-слоя.
type RouterDeps struct {
	Users          usecase.UserUseCase
	Recipes        usecase.RecipeUseCase
	Tags           usecase.TaxonomyUseCase[domain.Tag]
	Ingredients    usecase.TaxonomyUseCase[domain.Ingredient]
	AuthLimiter    *KeyedRateLimiter
	MaxUploadBytes int64
	RequestTimeout time.Duration
	AllowedOrigins []string
	// MediaRoot задается только для локального хранилища: файлы раздаются по /media/.
	MediaRoot string
	Logger    *slog.Logger
}

// NewRouter собирает chi-роутер со всеми маршрутами API.
func NewRouter(d RouterDeps) http.Handler {
	users := NewUserHandler(d.Users, d.Logger)
	recipes := NewRecipeHandler(d.Recipes, d.MaxUploadBytes, d.Logger)
	tags := NewTaxonomyHandler(d.Tags, "tag", d.Logger)
	ingredients := NewTaxonomyHandler(d.Ingredients, "ingredient", d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, d.Logger)
	})
	r.Handle("/metrics", promhttp.Handler())

	if d.MediaRoot != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaRoot))))
	}

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/create", users.CreateUser)
		r.With(rateLimited(d.AuthLimiter, d.Logger)).Post("/token", users.CreateToken)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(d.Users, d.Logger))
			r.Get("/me", users.Me)
			r.Put("/me", users.UpdateMe)
			r.Patch("/me", users.UpdateMe)
		})
	})

	r.Route("/api/recipe", func(r chi.Router) {
		r.Use(RequireAuth(d.Users, d.Logger))

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipes.ListRecipes)
			r.Post("/", recipes.CreateRecipe)
			r.Get("/{id}", recipes.GetRecipe)
			r.Put("/{id}", recipes.UpdateRecipe)
			r.Patch("/{id}", recipes.UpdateRecipe)
			r.Delete("/{id}", recipes.DeleteRecipe)
			r.Post("/{id}/upload-image", recipes.UploadImage)
		})

		taxonomyRoutes(r, "/tags", tags)
		taxonomyRoutes(r, "/ingredients", ingredients)
	})

	return r
}

func taxonomyRoutes[T any](r chi.Router, prefix string, h *TaxonomyHandler[T]) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func rateLimited(limiter *KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return RateLimit(limiter, logger)
}
