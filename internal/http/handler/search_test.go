package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"planforge.app/anvil/common/search"
	"planforge.app/anvil/internal/http/handler"
)

var _ = Describe("SearchHandler", func() {
	var (
		router *gin.Engine
		svc    *mockSearchService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockSearchService{}
		h := handler.NewSearchHandler(svc)
		router.GET("/search/requirements", h.Requirements)
	})

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns matching requirements", func() {
		var gotQuery string
		var gotLimit int
		svc.queryFn = func(_ context.Context, projectID int64, query string, limit int) ([]search.Hit, error) {
			Expect(projectID).To(Equal(int64(7)))
			gotQuery, gotLimit = query, limit
			return []search.Hit{
				{Document: search.RequirementDoc{
					ID:          "100-materials-alloy",
					ProjectID:   7,
					ChecklistID: 100,
					Category:    "Materials",
					PromptID:    "materials-alloy",
					Question:    "Alloy specified?",
					Answer:      "6061-T651 aluminum plate",
					Status:      "requirement_found",
				}},
			}, nil
		}

		w := get("/search/requirements?q=alloy&project_id=7")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(gotQuery).To(Equal("alloy"))
		Expect(gotLimit).To(Equal(20))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		hits := resp["hits"].([]any)
		Expect(hits).To(HaveLen(1))
		first := hits[0].(map[string]any)
		Expect(first["checklist_id"]).To(Equal("100"))
		Expect(first["answer"]).To(ContainSubstring("6061-T651"))
	})

	It("requires a query", func() {
		w := get("/search/requirements?project_id=7")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("requires a project ID", func() {
		w := get("/search/requirements?q=alloy")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("caps the limit", func() {
		w := get("/search/requirements?q=alloy&project_id=7&limit=500")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
