package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"planforge.app/anvil/internal/http/handler"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/reconcile"
	"planforge.app/anvil/internal/service"
	"planforge.app/anvil/internal/store"
)

var _ = Describe("SessionHandler", func() {
	var (
		router *gin.Engine
		svc    *mockSessionService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockSessionService{}
		h := handler.NewSessionHandler(svc, "X-Trace-Id")
		router.POST("/projects/:id/sessions", h.Start)
		router.GET("/projects/:id/sessions", h.ListByProject)
		router.GET("/sessions/:id", h.Get)
		router.PUT("/sessions/:id/resolutions", h.RecordResolutions)
		router.GET("/sessions/:id/progress", h.Progress)
		router.GET("/sessions/:id/preview", h.Preview)
		router.POST("/sessions/:id/refresh", h.Refresh)
		router.POST("/sessions/:id/merge", h.Merge)
		router.POST("/sessions/:id/publish", h.Publish)
		router.DELETE("/sessions/:id", h.Discard)
	})

	jsonRequest := func(method, path string, payload any) *httptest.ResponseRecorder {
		var req *http.Request
		if payload != nil {
			body, err := json.Marshal(payload)
			Expect(err).NotTo(HaveOccurred())
			req = httptest.NewRequest(method, path, bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Start", func() {
		It("creates a session and returns it with progress", func() {
			var gotProject, gotChecklist, gotQuote int64
			svc.startFn = func(_ context.Context, projectID, checklistID, quoteID int64) (*model.ReconciliationSession, error) {
				gotProject, gotChecklist, gotQuote = projectID, checklistID, quoteID
				return openSession(500), nil
			}

			w := jsonRequest(http.MethodPost, "/projects/7/sessions", map[string]string{
				"checklist_id": "100",
				"quote_id":     "300",
			})

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(gotProject).To(Equal(int64(7)))
			Expect(gotChecklist).To(Equal(int64(100)))
			Expect(gotQuote).To(Equal(int64(300)))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("500"))
			Expect(resp["status"]).To(Equal("open"))
			progress := resp["progress"].(map[string]any)
			Expect(progress["total_conflicts"]).To(BeNumerically("==", 2))
			Expect(progress["resolved_count"]).To(BeNumerically("==", 0))
		})

		It("rejects a body without a checklist ID", func() {
			w := jsonRequest(http.MethodPost, "/projects/7/sessions", map[string]string{"quote_id": "300"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 when the checklist or quote is missing", func() {
			svc.startFn = func(_ context.Context, _, _, _ int64) (*model.ReconciliationSession, error) {
				return nil, store.ErrNotFound
			}

			w := jsonRequest(http.MethodPost, "/projects/7/sessions", map[string]string{
				"checklist_id": "100",
				"quote_id":     "300",
			})
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 409 when the quote has no extracted assumptions", func() {
			svc.startFn = func(_ context.Context, _, _, _ int64) (*model.ReconciliationSession, error) {
				return nil, service.ErrQuoteNotExtracted
			}

			w := jsonRequest(http.MethodPost, "/projects/7/sessions", map[string]string{
				"checklist_id": "100",
				"quote_id":     "300",
			})
			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("returns 422 when the checklist belongs to another project", func() {
			svc.startFn = func(_ context.Context, _, _, _ int64) (*model.ReconciliationSession, error) {
				return nil, fmt.Errorf("%w: checklist 100 is not in project 7", service.ErrProjectMismatch)
			}

			w := jsonRequest(http.MethodPost, "/projects/7/sessions", map[string]string{
				"checklist_id": "100",
				"quote_id":     "300",
			})
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})
	})

	Describe("Get", func() {
		It("returns the session with derived progress", func() {
			session := openSession(500)
			session.Resolutions = []model.Resolution{{ConflictIndex: 0, Type: model.ResolutionTypeQuote}}
			svc.getFn = func(_ context.Context, _ int64) (*model.ReconciliationSession, error) {
				return session, nil
			}

			w := jsonRequest(http.MethodGet, "/sessions/500", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			progress := resp["progress"].(map[string]any)
			Expect(progress["resolved_count"]).To(BeNumerically("==", 1))
			Expect(progress["percentage"]).To(BeNumerically("==", 50))
			Expect(resp).NotTo(HaveKey("fingerprints"))
		})

		It("returns 404 for an unknown session", func() {
			svc.getFn = func(_ context.Context, _ int64) (*model.ReconciliationSession, error) {
				return nil, store.ErrNotFound
			}

			w := jsonRequest(http.MethodGet, "/sessions/999", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("rejects a non-numeric session ID", func() {
			w := jsonRequest(http.MethodGet, "/sessions/abc", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("RecordResolutions", func() {
		It("records the batch and returns updated progress", func() {
			var got []model.Resolution
			svc.recordResolutionsFn = func(_ context.Context, _ int64, resolutions []model.Resolution) (*model.ReconciliationSession, reconcile.Progress, error) {
				got = resolutions
				session := openSession(500)
				session.Resolutions = resolutions
				return session, reconcile.Progress{ResolvedCount: 1, TotalConflicts: 2, Percentage: 50}, nil
			}

			w := jsonRequest(http.MethodPut, "/sessions/500/resolutions", map[string]any{
				"resolutions": []map[string]any{
					{"conflict_index": 0, "resolution_type": "quote"},
				},
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got).To(HaveLen(1))
			Expect(got[0].Type).To(Equal(model.ResolutionTypeQuote))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			progress := resp["progress"].(map[string]any)
			Expect(progress["resolved_count"]).To(BeNumerically("==", 1))
		})

		It("rejects an empty batch", func() {
			w := jsonRequest(http.MethodPut, "/sessions/500/resolutions", map[string]any{
				"resolutions": []map[string]any{},
			})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 422 for a malformed resolution", func() {
			svc.recordResolutionsFn = func(_ context.Context, _ int64, _ []model.Resolution) (*model.ReconciliationSession, reconcile.Progress, error) {
				return nil, reconcile.Progress{}, &reconcile.ValidationError{Reason: "unknown resolution type \"maybe\""}
			}

			w := jsonRequest(http.MethodPut, "/sessions/500/resolutions", map[string]any{
				"resolutions": []map[string]any{
					{"conflict_index": 0, "resolution_type": "maybe"},
				},
			})

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["error"]).To(ContainSubstring("unknown resolution type"))
		})

		It("returns 409 when the session is no longer open", func() {
			svc.recordResolutionsFn = func(_ context.Context, _ int64, _ []model.Resolution) (*model.ReconciliationSession, reconcile.Progress, error) {
				return nil, reconcile.Progress{}, fmt.Errorf("%w: status is merged", service.ErrSessionNotOpen)
			}

			w := jsonRequest(http.MethodPut, "/sessions/500/resolutions", map[string]any{
				"resolutions": []map[string]any{
					{"conflict_index": 0, "resolution_type": "quote"},
				},
			})
			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("Preview", func() {
		It("returns the merge summary", func() {
			svc.previewFn = func(_ context.Context, _ int64) (reconcile.MergeSummary, error) {
				return reconcile.MergeSummary{TotalMatches: 3, QuoteAdditions: 1, ReadyToMerge: false}, nil
			}

			w := jsonRequest(http.MethodGet, "/sessions/500/preview", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			summary := resp["merge_summary"].(map[string]any)
			Expect(summary["total_matches"]).To(BeNumerically("==", 3))
			Expect(summary["ready_to_merge"]).To(BeFalse())
		})
	})

	Describe("Merge", func() {
		It("returns the merge outcome", func() {
			svc.mergeFn = func(_ context.Context, sessionID int64) (*service.MergeOutcome, error) {
				session := openSession(sessionID)
				session.Status = model.ReconciliationStatusMerged
				return &service.MergeOutcome{
					Session:     session,
					Checklist:   &model.Checklist{ID: 100, ProjectID: 7, ResolutionsApplied: true},
					ActionItems: []model.ActionItem{{Title: "Clarify coating"}},
					Summary:     model.ResolutionSummary{AcceptedQuote: 1, ActionItemsCreated: 1},
				}, nil
			}

			w := jsonRequest(http.MethodPost, "/sessions/500/merge", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			summary := resp["resolution_summary"].(map[string]any)
			Expect(summary["accepted_quote"]).To(BeNumerically("==", 1))
			checklist := resp["checklist"].(map[string]any)
			Expect(checklist["resolutions_applied"]).To(BeTrue())
		})

		It("returns 409 for a discarded session", func() {
			svc.mergeFn = func(_ context.Context, _ int64) (*service.MergeOutcome, error) {
				return nil, fmt.Errorf("%w: status is discarded", service.ErrSessionFinalized)
			}

			w := jsonRequest(http.MethodPost, "/sessions/500/merge", nil)
			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("Publish", func() {
		It("enqueues with the trace header and returns 202", func() {
			var gotTargets []model.PublicationTarget
			var gotTraceID *string
			svc.publishFn = func(_ context.Context, _ int64, targets []model.PublicationTarget, traceID *string) ([]model.Publication, error) {
				gotTargets = targets
				gotTraceID = traceID
				return []model.Publication{
					{ID: 900, SessionID: 500, Target: model.PublicationTargetWiki, Status: model.PublicationStatusPending},
				}, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/sessions/500/publish", nil)
			req.Header.Set("X-Trace-Id", "4bf92f3577b34da6a3ce929d0e0e4736")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(gotTargets).To(BeEmpty())
			Expect(gotTraceID).NotTo(BeNil())
			Expect(*gotTraceID).To(Equal("4bf92f3577b34da6a3ce929d0e0e4736"))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			pubs := resp["publications"].([]any)
			Expect(pubs).To(HaveLen(1))
			Expect(pubs[0].(map[string]any)["id"]).To(Equal("900"))
		})

		It("passes explicit targets through", func() {
			var gotTargets []model.PublicationTarget
			svc.publishFn = func(_ context.Context, _ int64, targets []model.PublicationTarget, _ *string) ([]model.Publication, error) {
				gotTargets = targets
				return []model.Publication{}, nil
			}

			w := jsonRequest(http.MethodPost, "/sessions/500/publish", map[string]any{
				"targets": []string{"wiki"},
			})

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(gotTargets).To(Equal([]model.PublicationTarget{model.PublicationTargetWiki}))
		})

		It("rejects an unknown target", func() {
			w := jsonRequest(http.MethodPost, "/sessions/500/publish", map[string]any{
				"targets": []string{"email"},
			})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 409 for an unmerged session", func() {
			svc.publishFn = func(_ context.Context, _ int64, _ []model.PublicationTarget, _ *string) ([]model.Publication, error) {
				return nil, service.ErrSessionNotMerged
			}

			w := jsonRequest(http.MethodPost, "/sessions/500/publish", nil)
			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("Discard", func() {
		It("returns 204 on success", func() {
			w := jsonRequest(http.MethodDelete, "/sessions/500", nil)
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})

		It("returns 409 when the session is already merged", func() {
			svc.discardFn = func(_ context.Context, _ int64) error {
				return fmt.Errorf("%w: status is merged", service.ErrSessionNotOpen)
			}

			w := jsonRequest(http.MethodDelete, "/sessions/500", nil)
			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("returns 404 for an unknown session", func() {
			svc.discardFn = func(_ context.Context, _ int64) error {
				return store.ErrNotFound
			}

			w := jsonRequest(http.MethodDelete, "/sessions/999", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("ListByProject", func() {
		It("returns session summaries", func() {
			svc.listByProjectFn = func(_ context.Context, projectID int64) ([]model.ReconciliationSession, error) {
				Expect(projectID).To(Equal(int64(7)))
				s := openSession(500)
				s.Resolutions = []model.Resolution{{ConflictIndex: 0, Type: model.ResolutionTypeQuote}}
				return []model.ReconciliationSession{*s}, nil
			}

			w := jsonRequest(http.MethodGet, "/projects/7/sessions", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			sessions := resp["sessions"].([]any)
			Expect(sessions).To(HaveLen(1))
			first := sessions[0].(map[string]any)
			Expect(first["id"]).To(Equal("500"))
			Expect(first["total_conflicts"]).To(BeNumerically("==", 2))
			Expect(first["resolved_count"]).To(BeNumerically("==", 1))
		})
	})
})

var _ = Describe("SessionHandler errors", func() {
	It("maps an unexpected service failure to 500", func() {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		svc := &mockSessionService{
			getFn: func(_ context.Context, _ int64) (*model.ReconciliationSession, error) {
				return nil, errors.New("connection refused")
			},
		}
		h := handler.NewSessionHandler(svc, "X-Trace-Id")
		router.GET("/sessions/:id", h.Get)

		req := httptest.NewRequest(http.MethodGet, "/sessions/500", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
