package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vnxcius/accounts-back/internal/account"
	"github.com/vnxcius/accounts-back/internal/apperr"
	"github.com/vnxcius/accounts-back/internal/database/model"
	"github.com/vnxcius/accounts-back/internal/session"
)

const RefreshCookieName = "refreshToken"

type Sessions interface {
	Login(ctx context.Context, email, password string) (*session.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*session.RefreshResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Accounts interface {
	List(ctx context.Context) ([]model.SafeUser, error)
	Get(ctx context.Context, id uint) (model.SafeUser, error)
	Create(ctx context.Context, in account.CreateInput) (model.SafeUser, error)
	Update(ctx context.Context, id uint, in account.UpdateInput) (model.SafeUser, error)
	Delete(ctx context.Context, id uint) error
}

// CookieConfig controls the refresh token cookie. HTTPOnly is off unless
// COOKIE_HTTP_ONLY is set.
type CookieConfig struct {
	MaxAge   time.Duration
	Secure   bool
	HTTPOnly bool
}

type Handler struct {
	sessions Sessions
	accounts Accounts
	cookie   CookieConfig
}

func New(sessions Sessions, accounts Accounts, cookie CookieConfig) *Handler {
	return &Handler{sessions: sessions, accounts: accounts, cookie: cookie}
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, Response{
		Status:  StatusError,
		Message: "Not Found: " + c.Request.URL.Path,
	})
}

func (h *Handler) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(RefreshCookieName, value, int(h.cookie.MaxAge.Seconds()), "/", "", h.cookie.Secure, h.cookie.HTTPOnly)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", h.cookie.Secure, h.cookie.HTTPOnly)
}

// writeError maps err to its status once. Errors that did not come from
// a service are reported without their text.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		slog.Error("Unhandled error", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
			Status:  StatusError,
			Message: "Internal server error",
		})
		return
	}

	c.AbortWithStatusJSON(appErr.Kind.Status(), Response{
		Status:  StatusError,
		Message: appErr.Error(),
	})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.KindNotFound, account.MsgUserNotFound)
	}
	return uint(id), nil
}
