package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reschool/eschool-gateway/internal/http/features/devices"
	"github.com/reschool/eschool-gateway/internal/http/features/homework"
	"github.com/reschool/eschool-gateway/internal/http/features/verification"
	"github.com/reschool/eschool-gateway/internal/http/middleware"
	"github.com/reschool/eschool-gateway/internal/httputil"
	"github.com/reschool/eschool-gateway/pkg/eschool"
	"github.com/reschool/eschool-gateway/pkg/repository"
	"github.com/reschool/eschool-gateway/pkg/verify"
)

// RouterConfig carries the dependencies the routes need.
type RouterConfig struct {
	Logger   *slog.Logger
	Sessions *eschool.Manager
	Engine   *verify.Engine
	Records  *repository.AccessRecordsRepository
	Homework *repository.HomeworkRepository

	RateLimitEnabled     bool
	GlobalRequestsPerMin int
	UploadDir            string
}

// NewRouter builds the HTTP surface of the gateway.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RequestSizeLimit(0))
	if cfg.RateLimitEnabled {
		r.Use(middleware.GlobalRateLimit(cfg.GlobalRequestsPerMin, cfg.Logger))
	}

	// One limiter instance backs every route group so the per-class quotas
	// are shared across the surface.
	limiter := middleware.NewLimiter(middleware.DefaultPolicies())
	classLimit := func(class string) func(http.Handler) http.Handler {
		if !cfg.RateLimitEnabled {
			return middleware.NoRateLimit()
		}
		return middleware.RateLimit(limiter, class, cfg.Logger)
	}

	verificationHandler := verification.NewHandler(cfg.Logger, cfg.Sessions, cfg.Engine)
	devicesHandler := devices.NewHandler(cfg.Logger, cfg.Records)
	homeworkHandler := homework.NewHandler(cfg.Logger, cfg.Homework, cfg.Records,
		homework.NewFileStorage(cfg.UploadDir))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(classLimit(middleware.ClassVerification))
		r.Post("/request-verification", verificationHandler.RequestVerification)
		r.Post("/check-verification", verificationHandler.CheckVerification)
	})

	r.Group(func(r chi.Router) {
		r.Use(classLimit(middleware.ClassDevices))
		r.Post("/revoke-token", devicesHandler.RevokeToken)
		r.Post("/list-devices", devicesHandler.ListDevices)
	})

	r.Group(func(r chi.Router) {
		r.Use(classLimit(middleware.ClassTokenCheck))
		r.Post("/check-verified-users", devicesHandler.CheckVerifiedUsers)
	})

	r.Group(func(r chi.Router) {
		r.Use(classLimit(middleware.ClassDefault))
		r.Post("/custom-homework/create", homeworkHandler.Create)
		r.Post("/custom-homework/list", homeworkHandler.List)
		r.Post("/custom-homework/update", homeworkHandler.Update)
		r.Post("/custom-homework/delete", homeworkHandler.Delete)
		r.Get("/custom-homework/file/{fileID}", homeworkHandler.DownloadFile)
	})

	return r
}
