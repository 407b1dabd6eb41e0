package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vnxcius/accounts-back/internal/account"
	"github.com/vnxcius/accounts-back/internal/apperr"
)

func (h *Handler) GetUsers(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Status: StatusSuccess, Message: "Users Retrieved", Data: users})
}

func (h *Handler) GetUserByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := h.accounts.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Status: StatusSuccess, Message: "User Retrieved", Data: user})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in account.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, apperr.Wrap(apperr.KindValidation, err, "Invalid request body"))
		return
	}

	user, err := h.accounts.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Status: StatusSuccess, Message: "User Registered", Data: user})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var in account.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, apperr.Wrap(apperr.KindValidation, err, "Invalid request body"))
		return
	}

	user, err := h.accounts.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Status: StatusSuccess, Message: "User Updated", Data: user})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.accounts.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Status: StatusSuccess, Message: "User Deleted"})
}
