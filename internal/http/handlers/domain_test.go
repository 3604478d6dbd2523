package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/config"
	"github.com/rubentalstra/trial-submission-studio/internal/http/middleware"
	"github.com/rubentalstra/trial-submission-studio/internal/pipeline"
	"github.com/rubentalstra/trial-submission-studio/internal/workpool"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testCatalog() *catalog.Catalog {
	domain := catalog.Domain{
		Name: "DM",
		Variables: []catalog.Variable{
			{Name: "STUDYID", DataType: catalog.Character, Core: catalog.Required, HasCore: true, Role: catalog.RoleIdentifier, HasRole: true, Order: 1},
			{Name: "USUBJID", DataType: catalog.Character, Core: catalog.Required, HasCore: true, Role: catalog.RoleIdentifier, HasRole: true, Order: 2},
			{Name: "SEX", DataType: catalog.Character, Core: catalog.Required, HasCore: true, CodelistCode: "SEX", Order: 3},
		},
	}
	return catalog.New([]catalog.Domain{domain}, []catalog.Codelist{
		{Code: "SEX", Name: "Sex", Extensible: false, Terms: []catalog.Term{
			{SubmissionValue: "F", Synonyms: []string{"Female"}},
			{SubmissionValue: "M", Synonyms: []string{"Male"}},
		}},
	})
}

func testRouter() *gin.Engine {
	h := NewDomainHandler(testCatalog(), pipeline.DefaultOptions, workpool.New(4), &config.Config{})
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	g := r.Group("/api/domains/:name")
	g.POST("/score", h.Score)
	g.POST("/mapping/:action", h.Mapping)
	g.POST("/build", h.Build)
	g.POST("/validate", h.Validate)
	g.POST("/supp", h.Supp)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestScoreEndpoint(t *testing.T) {
	r := testRouter()
	rec := doJSON(t, r, "POST", "/api/domains/DM/score", SessionRequest{
		StudyID: "STUDY1",
		Source: SourceGrid{
			Headers: []string{"subject", "gender"},
			Rows:    [][]string{{"001", "Female"}},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp ScoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := resp.Ranked["USUBJID"]; !ok {
		t.Errorf("expected USUBJID in ranked output, got %+v", resp.Ranked)
	}
}

func TestBuildAndValidateEndpoints(t *testing.T) {
	r := testRouter()
	req := SessionRequest{
		StudyID: "STUDY1",
		Source: SourceGrid{
			Headers: []string{"subject", "gender"},
			Rows:    [][]string{{"001", "Female"}, {"002", "Male"}},
		},
		Bindings: map[string]string{"USUBJID": "subject", "SEX": "gender"},
	}

	buildRec := doJSON(t, r, "POST", "/api/domains/DM/build", req)
	if buildRec.Code != http.StatusOK {
		t.Fatalf("build status = %d, body = %s", buildRec.Code, buildRec.Body.String())
	}
	var build BuildResponse
	if err := json.Unmarshal(buildRec.Body.Bytes(), &build); err != nil {
		t.Fatalf("unmarshal build: %v", err)
	}
	if build.Rows[0]["USUBJID"] != "STUDY1-001" {
		t.Errorf("unexpected USUBJID: %+v", build.Rows[0])
	}

	validateRec := doJSON(t, r, "POST", "/api/domains/DM/validate", req)
	if validateRec.Code != http.StatusOK {
		t.Fatalf("validate status = %d, body = %s", validateRec.Code, validateRec.Body.String())
	}
	var report ValidateResponse
	if err := json.Unmarshal(validateRec.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if report.HasErrors {
		t.Errorf("expected no errors, got %+v", report.Issues)
	}
}

func TestMappingEndpointUnknownDomain(t *testing.T) {
	r := testRouter()
	rec := doJSON(t, r, "POST", "/api/domains/XX/mapping/accept", MappingRequest{
		SessionRequest: SessionRequest{StudyID: "STUDY1", Source: SourceGrid{Headers: []string{"a"}}},
		Variable:       "FOO",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", rec.Code, rec.Body.String())
	}
}
