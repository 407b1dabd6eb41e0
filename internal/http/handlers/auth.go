package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vnxcius/accounts-back/internal/apperr"
)

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Wrap(apperr.KindValidation, err, "Invalid request body"))
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setRefreshCookie(c, res.RefreshToken)
	c.JSON(http.StatusOK, Response{
		Status:      StatusSuccess,
		Message:     "Login successful",
		Data:        res.User,
		AccessToken: res.AccessToken,
	})
}

// RefreshToken answers GET /token with a new access token for the user
// holding the refresh cookie.
func (h *Handler) RefreshToken(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)

	res, err := h.sessions.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Status:      StatusSuccess,
		Message:     "Access token refreshed",
		AccessToken: res.AccessToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)

	if err := h.sessions.Logout(c.Request.Context(), refreshToken); err != nil {
		writeError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, Response{
		Status:  StatusSuccess,
		Message: "Logout successful",
	})
}
