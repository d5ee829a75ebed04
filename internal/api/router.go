package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/joestump/devhub/docs/swagger"
	"github.com/joestump/devhub/internal/store"
)

// Deps holds all dependencies required to build the Data API router.
type Deps struct {
	Stores *store.Stores

	// EnforceAuthor requires a bearer token on blog writes and restricts
	// updates and deletes to the blog's author. Off, the API accepts any
	// well-formed write like the mock backend it stands in for.
	EnforceAuthor bool

	// UsersRate and UsersBurst bound GET /users per client IP. A rate <= 0
	// disables the limiter.
	UsersRate  float64
	UsersBurst int

	AllowedOrigins []string
}

// NewRouter assembles the Data API: the json-server compatible collections
// plus health, metrics and API docs.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Total-Count"},
	}).Handler)
	r.Use(instrument)

	identity := &bearerIdentity{users: deps.Stores.Users}
	r.Use(identity.Identify)

	r.Get("/healthz", health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/docs/*", httpSwagger.WrapHandler)

	users := &usersHandler{users: deps.Stores.Users}
	if deps.UsersRate > 0 {
		limiter := newClientLimiter(deps.UsersRate, deps.UsersBurst)
		r.With(limiter.Limit).Get("/users", users.List)
	} else {
		r.Get("/users", users.List)
	}

	devs := &developersHandler{developers: deps.Stores.Developers}
	r.Get("/developers", devs.List)
	r.Get("/developers/{id}", devs.Get)

	blogs := &blogsHandler{
		blogs:         deps.Stores.Blogs,
		comments:      deps.Stores.Comments,
		enforceAuthor: deps.EnforceAuthor,
	}
	r.Get("/blogs", blogs.List)
	r.Post("/blogs", blogs.Create)
	r.Get("/blogs/{id}", blogs.Get)
	r.Put("/blogs/{id}", blogs.Update)
	r.Delete("/blogs/{id}", blogs.Delete)

	comments := &commentsHandler{comments: deps.Stores.Comments}
	r.Get("/comments", comments.List)
	r.Post("/comments", comments.Create)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "NOT_FOUND")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
	})

	return r
}
