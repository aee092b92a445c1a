package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"planforge.app/anvil/core/config"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/service"
	"planforge.app/anvil/internal/store"
)

var _ = Describe("AuthService", func() {
	var (
		svc      service.AuthService
		users    *mockUserStore
		sessions *mockSessionStore
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = &mockUserStore{}
		sessions = &mockSessionStore{}
		svc = service.NewAuthService(users, sessions, config.WorkOSConfig{})
	})

	Describe("ValidateSession", func() {
		It("returns the user behind a live session", func() {
			sessions.getValidFn = func(_ context.Context, id int64) (*model.Session, error) {
				return &model.Session{ID: id, UserID: 42, ExpiresAt: time.Now().Add(time.Hour)}, nil
			}
			users.getByIDFn = func(_ context.Context, id int64) (*model.User, error) {
				Expect(id).To(Equal(int64(42)))
				return &model.User{ID: id, Name: "Dana Engineer", Email: "dana@example.com"}, nil
			}

			user, err := svc.ValidateSession(ctx, 900)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(42)))
			Expect(user.Email).To(Equal("dana@example.com"))
		})

		It("reports an expired or unknown session as expired", func() {
			sessions.getValidFn = func(_ context.Context, _ int64) (*model.Session, error) {
				return nil, store.ErrNotFound
			}

			_, err := svc.ValidateSession(ctx, 900)
			Expect(err).To(MatchError(service.ErrSessionExpired))
		})

		It("reports a session whose user is gone", func() {
			users.getByIDFn = func(_ context.Context, _ int64) (*model.User, error) {
				return nil, store.ErrNotFound
			}

			_, err := svc.ValidateSession(ctx, 900)
			Expect(err).To(MatchError(service.ErrUserNotFound))
		})

		It("wraps unexpected store failures", func() {
			sessions.getValidFn = func(_ context.Context, _ int64) (*model.Session, error) {
				return nil, errors.New("connection reset")
			}

			_, err := svc.ValidateSession(ctx, 900)
			Expect(err).To(MatchError(ContainSubstring("getting session")))
			Expect(errors.Is(err, service.ErrSessionExpired)).To(BeFalse())
		})
	})

	Describe("Logout", func() {
		It("deletes the session", func() {
			var deleted int64
			sessions.deleteFn = func(_ context.Context, id int64) error {
				deleted = id
				return nil
			}

			Expect(svc.Logout(ctx, 900)).To(Succeed())
			Expect(deleted).To(Equal(int64(900)))
		})

		It("wraps delete failures", func() {
			sessions.deleteFn = func(_ context.Context, _ int64) error {
				return errors.New("connection reset")
			}

			Expect(svc.Logout(ctx, 900)).To(MatchError(ContainSubstring("deleting session")))
		})
	})
})
