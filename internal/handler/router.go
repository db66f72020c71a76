package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sumanskitchen/kitchen-go/internal/middleware"
	"github.com/sumanskitchen/kitchen-go/internal/service"
)

// Services bundles what the router needs to serve every route.
type Services struct {
	Auth        *service.AuthService
	Recipes     *service.RecipeService
	Generator   *service.GeneratorService
	AuthLimiter *middleware.RateLimiter
	CORSOrigins []string

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
}

// NewRouter builds the API router.
func NewRouter(s Services) http.Handler {
	authHandler := NewAuthHandler(s.Auth)
	recipeHandler := NewRecipeHandler(s.Recipes)
	generateHandler := NewGenerateHandler(s.Generator)
	guard := middleware.NewAuth(s.Auth)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if s.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(s.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.AuthLimiter != nil {
				r.Use(s.AuthLimiter.Handler)
			}
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/google", authHandler.HandleGoogle)
		})
		r.With(guard.Required).Get("/me", authHandler.HandleMe)
	})

	r.Route("/api/recipes", func(r chi.Router) {
		r.Get("/", recipeHandler.HandleListPublic)
		r.With(guard.Required).Get("/mine", recipeHandler.HandleListMine)
		r.With(guard.Optional).Get("/{id}", recipeHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(guard.Required)
			r.Post("/", recipeHandler.HandleCreate)
			r.Put("/{id}", recipeHandler.HandleUpdate)
			r.Delete("/{id}", recipeHandler.HandleDelete)
			r.Post("/{id}/image", recipeHandler.HandleUploadImage)
		})
	})

	r.Route("/api/generate", func(r chi.Router) {
		r.Post("/from-prompt", generateHandler.HandleFromPrompt)
		r.Post("/from-image", generateHandler.HandleFromImage)
	})

	return r
}
