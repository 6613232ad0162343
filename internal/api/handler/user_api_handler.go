package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userbase/internal/api/dto"
	"github.com/martijn/userbase/internal/api/form"
	"github.com/martijn/userbase/internal/core/domain"
	"github.com/martijn/userbase/internal/core/service"
	"github.com/martijn/userbase/internal/logging"
)

// UserAPIHandler serves the JSON representation under /api/users.
type UserAPIHandler struct {
	userService *service.UserService
	logger      logging.Logger
}

func NewUserAPIHandler(userService *service.UserService, logger logging.Logger) *UserAPIHandler {
	return &UserAPIHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers handles GET /api/users
func (h *UserAPIHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users))
}

// GetUser handles GET /api/users/:id
func (h *UserAPIHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	user, err := h.userService.Read(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// CreateUser handles POST /api/users
func (h *UserAPIHandler) CreateUser(c *gin.Context) {
	fields, ok := h.bindFields(c, domain.UserFields{})
	if !ok {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), fields)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/users/%d", user.ID))
	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// ReplaceUser handles PUT /api/users/:id. Keys missing from the body are
// cleared.
func (h *UserAPIHandler) ReplaceUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	fields, ok := h.bindFields(c, domain.UserFields{})
	if !ok {
		return
	}

	h.update(c, id, fields)
}

// PatchUser handles PATCH /api/users/:id. Only keys present in the body
// change.
func (h *UserAPIHandler) PatchUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	current, err := h.userService.Read(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	fields, ok := h.bindFields(c, current.UserFields)
	if !ok {
		return
	}

	h.update(c, id, fields)
}

// DeleteUser handles DELETE /api/users/:id
func (h *UserAPIHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.userService.Destroy(c.Request.Context(), id); err != nil {
		h.serviceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserAPIHandler) update(c *gin.Context, id int64, fields domain.UserFields) {
	user, err := h.userService.Update(c.Request.Context(), id, fields)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// bindFields reads the request body on top of base. The attributes may be
// sent at the top level or nested under "user".
func (h *UserAPIHandler) bindFields(c *gin.Context, base domain.UserFields) (domain.UserFields, bool) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return base, false
	}

	if nested, ok := body["user"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			body = inner
		}
	}

	fields, err := form.ParseJSON(body, base)
	if err != nil {
		resp := dto.ErrorResponse{
			Error:   "Bad Request",
			Message: "invalid user attributes",
			Code:    http.StatusBadRequest,
		}
		var fieldErrs form.Errors
		if errors.As(err, &fieldErrs) {
			resp.Fields = fieldErrs.Messages()
		}
		c.JSON(http.StatusBadRequest, resp)
		return base, false
	}
	return fields, true
}

func (h *UserAPIHandler) parseID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not Found",
			Message: fmt.Sprintf("User not found: %s", raw),
			Code:    http.StatusNotFound,
		})
		return 0, false
	}
	return id, true
}

func (h *UserAPIHandler) serviceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not Found",
			Message: fmt.Sprintf("User not found: %s", c.Param("id")),
			Code:    http.StatusNotFound,
		})
		return
	}

	h.logger.Error(c.Request.Context(), "request failed", "error", err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "Internal Server Error",
		Message: "storage unavailable",
		Code:    http.StatusInternalServerError,
	})
}
