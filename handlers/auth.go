package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"heritage-api/apperr"
	"heritage-api/middleware"
	"heritage-api/models"
	"heritage-api/services"
)

type RegisterRequest struct {
	Name     string          `json:"name" binding:"required"`
	Phone    string          `json:"phone" binding:"required"`
	Location models.Location `json:"location"`
	Clan     string          `json:"clan"`
}

type LoginRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.issuer.Issue(user)
	if err != nil {
		middleware.RespondError(c, apperr.Internal(err, "Failed to generate token"))
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

// Register creates a contributor account from JSON or a multipart form
// with an optional profile_picture file.
func (h *Handler) Register(c *gin.Context) {
	in, closeFiles, err := h.registerInput(c)
	defer closeFiles()
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	user, err := h.identity.Register(c.Request.Context(), in)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *Handler) registerInput(c *gin.Context) (services.RegisterInput, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		var req RegisterRequest
		if err := bindJSON(c, &req); err != nil {
			return services.RegisterInput{}, noop, err
		}
		return services.RegisterInput{Name: req.Name, Phone: req.Phone, Location: req.Location, Clan: req.Clan}, noop, nil
	}

	form, err := h.parseMultipart(c)
	if err != nil {
		return services.RegisterInput{}, noop, err
	}
	in := services.RegisterInput{}
	if v, ok := formValue(form, "name"); ok {
		in.Name = v
	}
	if v, ok := formValue(form, "phone"); ok {
		in.Phone = v
	}
	if v, ok := formValue(form, "clan"); ok {
		in.Clan = v
	}
	if _, err := formJSON(form, "location", &in.Location); err != nil {
		return services.RegisterInput{}, noop, err
	}

	files, closeFiles, err := openFiles(form, "profile_picture")
	if err != nil {
		return services.RegisterInput{}, closeFiles, err
	}
	if len(files) > 0 {
		in.ProfilePicture = &files[0]
	}
	return in, closeFiles, nil
}

// Login authenticates a contributor by phone number
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.RespondError(c, err)
		return
	}
	user, err := h.identity.LoginContributor(c.Request.Context(), req.Phone)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

// AdminLogin authenticates an Admin or Super Admin by email and password
func (h *Handler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperr.Unauthorized("Invalid admin credentials"))
		return
	}
	user, err := h.identity.LoginAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

// GetProfile returns the authenticated user's own profile
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetUser(c))
}

// ChangePassword rotates an administrator's password and returns a fresh
// token; older tokens stop working.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.RespondError(c, err)
		return
	}
	user, err := h.identity.ChangePassword(c.Request.Context(), middleware.GetUser(c).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}
