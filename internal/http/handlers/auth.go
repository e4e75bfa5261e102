package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mealplanr/internal/auth"
	"mealplanr/internal/http/middleware"
	"mealplanr/internal/http/response"
	"mealplanr/internal/user"
)

// ProfileStore persists profile edits.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, id string, p user.Profile) error
}

type AuthHandler struct {
	auth     *auth.Service
	profiles ProfileStore
}

func NewAuthHandler(authService *auth.Service, profiles ProfileStore) *AuthHandler {
	return &AuthHandler{auth: authService, profiles: profiles}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (ah *AuthHandler) token(c *gin.Context, status int, token string) {
	c.JSON(status, tokenResponse{
		AccessToken: token,
		TokenType:   auth.TokenType,
		ExpiresIn:   int(ah.auth.AccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	token, _, err := ah.auth.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	ah.token(c, http.StatusOK, token)
}

// Login accepts an OAuth2 password form (username, password) or a JSON body.
func (ah *AuthHandler) Login(c *gin.Context) {
	var email, password string
	if c.ContentType() == "application/json" {
		var req struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
			return
		}
		email, password = req.Email, req.Password
		if email == "" {
			email = req.Username
		}
	} else {
		email = c.PostForm("username")
		if email == "" {
			email = c.PostForm("email")
		}
		password = c.PostForm("password")
	}
	if strings.TrimSpace(email) == "" || password == "" {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, errors.New("username and password are required"))
		return
	}

	token, err := ah.auth.Login(c.Request.Context(), email, password)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	ah.token(c, http.StatusOK, token)
}

func (ah *AuthHandler) Me(c *gin.Context) {
	response.RespondOK(c, middleware.CurrentUser(c))
}

func (ah *AuthHandler) UpdateProfile(c *gin.Context) {
	var p user.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, err)
		return
	}
	if p.WeeklyBudget < 0 {
		response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, errors.New("weeklyBudget must not be negative"))
		return
	}
	p = p.Normalize()

	u := middleware.CurrentUser(c)
	if err := ah.profiles.UpdateProfile(c.Request.Context(), u.ID, p); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, p)
}
