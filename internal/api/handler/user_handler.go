package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userbase/internal/api/form"
	"github.com/martijn/userbase/internal/api/view"
	"github.com/martijn/userbase/internal/core/domain"
	"github.com/martijn/userbase/internal/core/service"
	"github.com/martijn/userbase/internal/flash"
	"github.com/martijn/userbase/internal/logging"
)

// Flash texts shown after a successful write.
const (
	NoticeCreated   = "User was successfully created."
	NoticeUpdated   = "User was successfully updated."
	NoticeDestroyed = "User was successfully destroyed."
)

// UserHandler serves the HTML pages under /users.
type UserHandler struct {
	userService *service.UserService
	flasher     *flash.Flasher
	logger      logging.Logger
}

func NewUserHandler(userService *service.UserService, flasher *flash.Flasher, logger logging.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		flasher:     flasher,
		logger:      logger,
	}
}

// Index handles GET /users
func (h *UserHandler) Index(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, view.PageIndex, h.page(c, "Users", view.Page{Users: users}))
}

// Show handles GET /users/:id
func (h *UserHandler) Show(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, view.PageShow, h.page(c, "User", view.Page{User: user}))
}

// New handles GET /users/new
func (h *UserHandler) New(c *gin.Context) {
	c.HTML(http.StatusOK, view.PageNew, h.page(c, "New User", newForm(domain.UserFields{})))
}

// Edit handles GET /users/:id/edit
func (h *UserHandler) Edit(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, view.PageEdit, h.page(c, "Editing User", editForm(user.ID, user.UserFields)))
}

// Create handles POST /users
func (h *UserHandler) Create(c *gin.Context) {
	fields, err := parseForm(c)
	if err != nil {
		p := newForm(fields)
		rejectForm(c, &p, err)
		c.HTML(http.StatusUnprocessableEntity, view.PageNew, h.page(c, "New User", p))
		return
	}

	user, err := h.userService.Create(c.Request.Context(), fields)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.redirectWithNotice(c, userPath(user.ID), NoticeCreated)
}

// Update handles PATCH and PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	fields, err := parseForm(c)
	if err != nil {
		p := editForm(id, fields)
		rejectForm(c, &p, err)
		c.HTML(http.StatusUnprocessableEntity, view.PageEdit, h.page(c, "Editing User", p))
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, fields)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.redirectWithNotice(c, userPath(user.ID), NoticeUpdated)
}

// Destroy handles DELETE /users/:id
func (h *UserHandler) Destroy(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.userService.Destroy(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}

	h.redirectWithNotice(c, "/users", NoticeDestroyed)
}

// NotFound renders the 404 page for unrouted paths.
func (h *UserHandler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, view.PageError, view.Page{
		Title:   "Not Found",
		Message: "The page you were looking for doesn't exist.",
	})
}

func (h *UserHandler) load(c *gin.Context) (*domain.User, bool) {
	id, ok := h.parseID(c)
	if !ok {
		return nil, false
	}

	user, err := h.userService.Read(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return nil, false
	}
	return user, true
}

// parseID reads :id. Anything that is not a positive integer cannot name a
// user, so it is a 404 like any other unknown id.
func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderError(c, service.ErrNotFound)
		return 0, false
	}
	return id, true
}

func (h *UserHandler) page(c *gin.Context, title string, p view.Page) view.Page {
	p.Title = title
	p.Fields = form.Fields
	if msg, ok := h.flasher.Pop(c); ok {
		p.Flash = &msg
	}
	return p
}

func (h *UserHandler) redirectWithNotice(c *gin.Context, location, notice string) {
	if err := h.flasher.Set(c, flash.Notice(notice)); err != nil {
		h.logger.Warn(c.Request.Context(), "failed to store flash message", "error", err)
	}
	c.Redirect(http.StatusSeeOther, location)
}

func (h *UserHandler) renderError(c *gin.Context, err error) {
	status, title, message := http.StatusInternalServerError, "Something went wrong",
		"We're sorry, but something went wrong."
	if errors.Is(err, service.ErrNotFound) {
		status, title, message = http.StatusNotFound, "Not Found", "User not found."
	} else {
		h.logger.Error(c.Request.Context(), "request failed", "error", err)
	}

	c.HTML(status, view.PageError, view.Page{Title: title, Message: message})
	c.Abort()
}

func parseForm(c *gin.Context) (domain.UserFields, error) {
	if err := c.Request.ParseForm(); err != nil {
		return domain.UserFields{}, err
	}
	return form.Parse(c.Request.PostForm)
}

// rejectForm echoes the submitted input and the reasons it was refused.
func rejectForm(c *gin.Context, p *view.Page, err error) {
	p.Submitted = form.Submitted(c.Request.PostForm)

	var fieldErrs form.Errors
	if errors.As(err, &fieldErrs) {
		p.Errors = fieldErrs.Messages()
		return
	}
	p.Errors = []string{err.Error()}
}

func newForm(fields domain.UserFields) view.Page {
	return view.Page{
		Action: "/users",
		Submit: "Create User",
		Values: fields,
	}
}

func editForm(id int64, fields domain.UserFields) view.Page {
	return view.Page{
		User:   &domain.User{ID: id, UserFields: fields},
		Action: userPath(id),
		Method: "patch",
		Submit: "Update User",
		Values: fields,
	}
}

func userPath(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}
