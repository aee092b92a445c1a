package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"planforge.app/anvil/common/id"
	"planforge.app/anvil/core/config"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/store"
)

var (
	ErrInvalidCode    = errors.New("invalid authorization code")
	ErrUserNotFound   = errors.New("user not found")
	ErrSessionExpired = errors.New("session expired")
)

const loginSessionTTL = 7 * 24 * time.Hour

// AuthService runs the WorkOS AuthKit login flow and owns the resulting
// server-side sessions. Handlers only ever see snowflake session IDs;
// WorkOS tokens stay inside HandleCallback.
type AuthService interface {
	GetAuthorizationURL(state string) (string, error)
	HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error)
	ValidateSession(ctx context.Context, sessionID int64) (*model.User, error)
	Logout(ctx context.Context, sessionID int64) error
}

type authService struct {
	userStore    store.UserStore
	sessionStore store.SessionStore
	cfg          config.WorkOSConfig
}

func NewAuthService(userStore store.UserStore, sessionStore store.SessionStore, cfg config.WorkOSConfig) AuthService {
	usermanagement.SetAPIKey(cfg.APIKey)
	return &authService{
		userStore:    userStore,
		sessionStore: sessionStore,
		cfg:          cfg,
	}
}

func (s *authService) GetAuthorizationURL(state string) (string, error) {
	opts := usermanagement.GetAuthorizationURLOpts{
		ClientID:    s.cfg.ClientID,
		RedirectURI: s.cfg.RedirectURI,
		State:       state,
		Provider:    "authkit",
	}
	url, err := usermanagement.GetAuthorizationURL(opts)
	if err != nil {
		return "", fmt.Errorf("building authorization url: %w", err)
	}
	return url.String(), nil
}

// HandleCallback exchanges the AuthKit code for a profile, upserts the
// user keyed on WorkOS ID, and opens a fresh session. Every login gets
// its own session row; concurrent logins from two browsers coexist.
func (s *authService) HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	authResponse, err := usermanagement.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: s.cfg.ClientID,
		Code:     code,
	})
	if err != nil {
		slog.ErrorContext(ctx, "workos code exchange failed", "error", err)
		return nil, nil, ErrInvalidCode
	}

	user := userFromProfile(authResponse.User)
	if err := s.userStore.UpsertByWorkOSID(ctx, user); err != nil {
		slog.ErrorContext(ctx, "failed to upsert user",
			"error", err,
			"email", user.Email,
			"workos_id", authResponse.User.ID,
		)
		return nil, nil, fmt.Errorf("upserting user: %w", err)
	}

	session := &model.Session{
		ID:        id.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(loginSessionTTL),
	}
	if err := s.sessionStore.Create(ctx, session); err != nil {
		slog.ErrorContext(ctx, "session create failed", "error", err, "user_id", user.ID)
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}

	slog.InfoContext(ctx, "user logged in",
		"user_id", user.ID,
		"email", user.Email,
		"session_id", session.ID)

	return user, session, nil
}

// ValidateSession resolves a session ID to its user. Expired and unknown
// sessions are indistinguishable to the caller, both are ErrSessionExpired.
func (s *authService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	session, err := s.sessionStore.GetValid(ctx, sessionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrSessionExpired
	case err != nil:
		return nil, fmt.Errorf("getting session: %w", err)
	}

	user, err := s.userStore.GetByID(ctx, session.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return user, nil
}

func (s *authService) Logout(ctx context.Context, sessionID int64) error {
	if err := s.sessionStore.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// userFromProfile maps a WorkOS profile onto a new user row. The ID is
// only used when the upsert inserts; on conflict the stored row keeps its
// original ID.
func userFromProfile(workosUser usermanagement.User) *model.User {
	var avatarURL *string
	if workosUser.ProfilePictureURL != "" {
		avatarURL = &workosUser.ProfilePictureURL
	}
	return &model.User{
		ID:        id.New(),
		Name:      buildUserName(workosUser),
		Email:     workosUser.Email,
		AvatarURL: avatarURL,
		WorkOSID:  &workosUser.ID,
	}
}

// buildUserName joins whichever name parts the profile has, falling back
// to the email address when both are blank.
func buildUserName(user usermanagement.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return user.Email
	}
	return name
}
