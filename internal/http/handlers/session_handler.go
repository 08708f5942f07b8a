// Session HTTP handlers.
//
//   - GET  /session           (status)
//   - POST /session/login     (login)
//   - POST /session/logout    (logout)
//   - POST /session/password  (change password)
//   - GET  /me                (profile refreshed from the backend)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"warehouse.lead"`
	Password string `json:"password" binding:"required" example:"s3cret"`
}

// ChangePasswordRequest is the JSON payload for changing the password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// SessionStatus godoc
// @ID          getSession
// @Summary     Session status
// @Description Reports whether an operator session is stored and when its token expires.
// @Tags        Session
// @Produce     json
// @Success     200  {object}  services.SessionStatus
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /session [get]
func (h *Handlers) SessionStatus(c *gin.Context) {
	st, err := h.sessions.Status(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Authenticates against the warehouse backend and stores the session.
// @Tags        Session
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  services.SessionStatus
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     502   {object}  handlers.ErrorResponse  "Backend error"
// @Failure     503   {object}  handlers.ErrorResponse  "Backend unavailable"
// @Router      /session/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.sessions.Login(ctx, req.Username, req.Password); err != nil {
		failErr(c, err)
		return
	}
	st, err := h.sessions.Status(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Drops the stored session. The backend keeps no session state.
// @Tags        Session
// @Success     204  {string}  string  "No Content"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /session/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ChangePassword godoc
// @ID          changePassword
// @Summary     Change password
// @Tags        Session
// @Accept      json
// @Param       body  body      handlers.ChangePasswordRequest  true  "Old and new password"
// @Success     204   {string}  string  "No Content"
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401   {object}  handlers.ErrorResponse  "Login required"
// @Failure     502   {object}  handlers.ErrorResponse  "Backend error"
// @Router      /session/password [post]
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "old_password and new_password are required")
		return
	}
	if err := h.sessions.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// Me godoc
// @ID          me
// @Summary     Current operator
// @Description Fetches the operator profile from the backend and refreshes the cached copy.
// @Tags        Session
// @Produce     json
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Login required"
// @Failure     502  {object}  handlers.ErrorResponse  "Backend error"
// @Router      /me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.sessions.RefreshProfile(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
