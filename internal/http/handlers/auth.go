package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type Credentials interface {
	Register(ctx context.Context, email, password, fullName string) (user.User, error)
	Authenticate(ctx context.Context, email, password string) (user.User, error)
}

type TokenIssuer interface {
	Issue(u user.User) (string, error)
	TTL() time.Duration
}

type AuthHandler struct {
	users  Credentials
	tokens TokenIssuer
}

func NewAuthHandler(users Credentials, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.users.Register(ctx.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"userId":  u.ID,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.users.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":     token,
		"tokenType": "Bearer",
		"expiresIn": int(h.tokens.TTL().Seconds()),
		"role":      u.PrimaryRole(),
		"roles":     u.RoleSet().Strings(),
		"user": gin.H{
			"userId":   u.ID,
			"email":    u.Email,
			"fullName": u.FullName,
		},
	})
}
