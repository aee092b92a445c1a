package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/service"
)

const (
	sessionCookieName = "anvil_session"
	stateCookieName   = "anvil_oauth_state"
	stateCookieTTL    = 600 // seconds, outlives any reasonable AuthKit round trip
)

type AuthHandler struct {
	authService  service.AuthService
	dashboardURL string
	isProduction bool
	authEnabled  bool
}

func NewAuthHandler(authService service.AuthService, dashboardURL string, isProduction, authEnabled bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		dashboardURL: dashboardURL,
		isProduction: isProduction,
		authEnabled:  authEnabled,
	}
}

// Login sets a random state cookie and hands the browser to AuthKit.
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := generateState()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to generate state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate login"})
		return
	}

	authURL, err := h.authService.GetAuthorizationURL(state)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to get authorization URL", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate login"})
		return
	}

	h.setCookie(c, stateCookieName, state, stateCookieTTL)
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback finishes the AuthKit round trip: state check, code exchange,
// session cookie, then back to the dashboard. Failures land on the
// dashboard with an auth_error query param rather than a JSON error,
// since the browser is mid-redirect.
func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	if errParam := c.Query("error"); errParam != "" {
		slog.WarnContext(ctx, "authkit returned an error", "error", errParam, "description", c.Query("error_description"))
		h.redirectError(c, errParam)
		return
	}

	state := c.Query("state")
	storedState, err := c.Cookie(stateCookieName)
	if err != nil || state != storedState {
		slog.WarnContext(ctx, "state mismatch", "expected", storedState, "got", state)
		h.redirectError(c, "invalid_state")
		return
	}
	h.setCookie(c, stateCookieName, "", -1)

	code := c.Query("code")
	if code == "" {
		h.redirectError(c, "no_code")
		return
	}

	user, session, err := h.authService.HandleCallback(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle callback", "error", err)
		if errors.Is(err, service.ErrInvalidCode) {
			h.redirectError(c, "invalid_code")
			return
		}
		h.redirectError(c, "callback_failed")
		return
	}

	h.setSessionCookie(c, session)

	slog.InfoContext(ctx, "user logged in", "user_id", user.ID, "email", user.Email)

	c.Redirect(http.StatusTemporaryRedirect, h.dashboardURL)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, err := h.getSessionID(c)
	if err == nil && sessionID > 0 {
		if err := h.authService.Logout(ctx, sessionID); err != nil {
			slog.WarnContext(ctx, "failed to delete session", "error", err, "session_id", sessionID)
		}
	}

	h.setCookie(c, sessionCookieName, "", -1)

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, err := h.getSessionID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	user, err := h.authService.ValidateSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionExpired) || errors.Is(err, service.ErrUserNotFound) {
			h.setCookie(c, sessionCookieName, "", -1)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		slog.ErrorContext(ctx, "failed to validate session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            strconv.FormatInt(user.ID, 10),
		"name":          user.Name,
		"email":         user.Email,
		"avatar_url":    user.AvatarURL,
		"last_login_at": user.LastLoginAt,
	})
}

// RequireSession guards a route group with the session cookie. When auth
// is not configured (local development without WorkOS) every request
// passes through.
func (h *AuthHandler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.authEnabled {
			c.Next()
			return
		}

		sessionID, err := h.getSessionID(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if _, err := h.authService.ValidateSession(c.Request.Context(), sessionID); err != nil {
			if errors.Is(err, service.ErrSessionExpired) || errors.Is(err, service.ErrUserNotFound) {
				h.setCookie(c, sessionCookieName, "", -1)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
			slog.ErrorContext(c.Request.Context(), "failed to validate session", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to validate session"})
			return
		}

		c.Next()
	}
}

// setSessionCookie matches the cookie lifetime to the session row so the
// browser and the database expire together.
func (h *AuthHandler) setSessionCookie(c *gin.Context, session *model.Session) {
	maxAge := int(session.TTL(time.Now()).Seconds())
	h.setCookie(c, sessionCookieName, strconv.FormatInt(session.ID, 10), maxAge)
}

// setCookie applies the auth cookie defaults: host-only, whole site,
// HTTP-only, secure outside development. A negative maxAge clears.
func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetCookie(name, value, maxAge, "/", "", h.isProduction, true)
}

func (h *AuthHandler) redirectError(c *gin.Context, code string) {
	c.Redirect(http.StatusTemporaryRedirect, h.dashboardURL+"?auth_error="+code)
}

func (h *AuthHandler) getSessionID(c *gin.Context) (int64, error) {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(cookie, 10, 64)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
