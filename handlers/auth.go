package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/docuforge/docuforge/internal/httperr"
	"github.com/docuforge/docuforge/internal/models"
	"github.com/docuforge/docuforge/internal/sessions"
	"github.com/docuforge/docuforge/internal/tokens"
	"github.com/docuforge/docuforge/internal/users"
	"github.com/docuforge/docuforge/pkg/logger"
	"github.com/docuforge/docuforge/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	users      *users.Service
	sessions   *sessions.Service
	issuer     *tokens.Issuer
	blacklist  *sessions.Blacklist
	refreshTTL time.Duration
}

func NewAuthHandler(u *users.Service, s *sessions.Service, issuer *tokens.Issuer, bl *sessions.Blacklist, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{users: u, sessions: s, issuer: issuer, blacklist: bl, refreshTTL: refreshTTL}
}

// Register mounts the public routes under /auth.
func (h *AuthHandler) Register(r gin.IRouter) {
	a := r.Group("/auth")
	a.POST("/signup", h.SignUp)
	a.POST("/signin", h.SignIn)
	a.POST("/refresh", h.Refresh)
	a.POST("/signout", h.SignOut)
}

// RegisterAccount mounts /api/v1/me on a router already guarded by AuthMiddleware.
func (h *AuthHandler) RegisterAccount(r gin.IRouter) {
	r.GET("/api/v1/me", h.Me)
	r.PATCH("/api/v1/me", h.UpdateMe)
	r.DELETE("/api/v1/me", h.DeleteMe)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req users.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.SignUp(c.Request.Context(), req)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	sess, err := h.sessions.SignIn(c.Request.Context(), u.ID, u.Email, h.refreshTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	h.respondTokens(c, u, sess)
}

// respondTokens issues an access token for u next to the refresh session.
func (h *AuthHandler) respondTokens(c *gin.Context, u *models.User, sess *sessions.Session) {
	access, _, err := h.issuer.Issue(u)
	if err != nil {
		logger.Errorf("failed to sign access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": sess.RefreshToken,
		"user":         u,
		"expiresIn":    int(h.issuer.TTL().Seconds()),
	})
}

// Refresh rotates the refresh token and returns a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.sessions.Refresh(c.Request.Context(), req.RefreshToken, h.refreshTTL)
	if errors.Is(err, sessions.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	if err != nil {
		logger.Errorf("refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	u, err := h.users.Get(c.Request.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		httperr.Abort(c, err)
		return
	}
	h.respondTokens(c, u, sess)
}

// SignOut drops the refresh session. A valid bearer access token sent along is
// blacklisted until it expires.
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if raw, ok := bearer(c); ok {
		if err := h.revoke(c, raw); err != nil {
			logger.Errorf("failed to blacklist access token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
			return
		}
	}
	if err := h.sessions.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		logger.Errorf("failed to remove session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func bearer(c *gin.Context) (string, bool) {
	scheme, tok, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	tok = strings.TrimSpace(tok)
	return tok, ok && strings.EqualFold(scheme, "Bearer") && tok != ""
}

// revoke blacklists a locally issued token for its remaining lifetime. Tokens
// that do not verify are already unusable and are skipped.
func (h *AuthHandler) revoke(c *gin.Context, raw string) error {
	tok, err := h.issuer.Verify(c.Request.Context(), raw)
	if err != nil {
		logger.Debugf("sign-out token not revoked: %v", err)
		return nil
	}
	exp, err := tokens.ExpiresAt(tok)
	if err != nil {
		logger.Debugf("sign-out token not revoked: %v", err)
		return nil
	}
	return h.blacklist.Add(c.Request.Context(), raw, time.Until(exp))
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req users.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), middleware.Subject(c), req)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteMe removes the account with its documents and sessions, then revokes
// the token used for the call.
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), middleware.Subject(c)); err != nil {
		httperr.Abort(c, err)
		return
	}
	if err := h.revoke(c, middleware.RawToken(c)); err != nil {
		logger.Warnf("account deleted but access token not blacklisted: %v", err)
	}
	c.Status(http.StatusNoContent)
}
