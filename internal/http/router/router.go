package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vnxcius/accounts-back/internal/http/handlers"
	"github.com/vnxcius/accounts-back/internal/http/middleware"
	"github.com/vnxcius/accounts-back/internal/metrics"
)

type Options struct {
	AllowedOrigins []string
	TrustedProxies []string
	Guard          middleware.TokenVerifier
	Metrics        *metrics.Metrics
}

func NewRouter(h *handlers.Handler, opts Options) (*gin.Engine, error) {
	r := gin.New()
	r.Use(middleware.SlogLoggerMiddleware())
	r.Use(gin.Recovery())
	r.Use(opts.Metrics.Middleware())

	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	// the refresh cookie needs credentialed CORS
	if len(opts.AllowedOrigins) > 0 {
		slog.Info("Allowing origins", "origins", opts.AllowedOrigins)
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           24 * time.Hour,
		}))
	}

	guard := middleware.AccessGuard(opts.Guard, opts.Metrics)

	r.GET("/ping", handlers.Ping)
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	r.GET("/token", h.RefreshToken)
	r.POST("/login", h.Login)
	r.DELETE("/logout", h.Logout)

	{
		users := r.Group("/users")
		users.POST("", h.CreateUser)
		users.GET("", guard, h.GetUsers)
		users.GET("/:id", guard, h.GetUserByID)
		users.PUT("/:id", guard, h.UpdateUser)
		users.DELETE("/:id", guard, h.DeleteUser)
	}

	r.NoRoute(handlers.NotFound)
	return r, nil
}

// Run serves r until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, r *gin.Engine, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server in " + gin.Mode())
		slog.Info("Starting server on port " + port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
