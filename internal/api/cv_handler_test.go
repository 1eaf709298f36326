package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cvstudio/internal/api/middleware"
	"cvstudio/internal/database"
	"cvstudio/internal/parser"
	"cvstudio/internal/render"
	"cvstudio/internal/schema"
	"cvstudio/internal/service"
	"cvstudio/internal/template"
)

type nullPDFEngine struct{}

func (nullPDFEngine) RenderPDF(_ context.Context, _ string) ([]byte, error) {
	return []byte("%PDF-1.4 test"), nil
}
func (nullPDFEngine) Healthy() bool     { return true }
func (nullPDFEngine) OpenSurfaces() int { return 0 }
func (nullPDFEngine) Close() error      { return nil }

// asUser 在测试路由里顶替认证中间件。
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *CVHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// 内存 sqlite 不能跨连接共享, 固定单连接。
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := schema.NewValidator()
	parsers, err := parser.NewDefaultRegistry(validator)
	if err != nil {
		t.Fatalf("parser registry: %v", err)
	}
	templates, err := template.NewDefaultRegistry(template.NewHTMLEngine())
	if err != nil {
		t.Fatalf("template registry: %v", err)
	}
	pipeline := render.NewPipeline(templates, nullPDFEngine{}, time.Second, log)
	repo := database.NewCVRepository(db)
	svc := service.NewCVService(repo, validator, parsers, templates, pipeline, log)

	handler := NewCVHandler(svc, nil, nil, false, "", 1<<20)

	router := gin.New()
	router.GET("/v1/public/:token", handler.GetPublicCV)
	group := router.Group("/v1/cvs", asUser(1))
	{
		group.POST("", handler.CreateCV)
		group.GET("", handler.ListCVs)
		group.GET("/stats", handler.GetStats)
		group.POST("/import", handler.ImportCV)
		group.GET("/:id", handler.GetCV)
		group.PUT("/:id", handler.UpdateCV)
		group.DELETE("/:id", handler.DeleteCV)
		group.GET("/:id/export", handler.ExportCV)
		group.GET("/:id/versions", handler.ListVersions)
		group.PUT("/:id/template", handler.ChangeTemplate)
		group.POST("/:id/publish", handler.PublishCV)
	}
	return router, handler
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validRecord() map[string]any {
	return map[string]any{
		"personalInfo": map[string]any{
			"fullName": "Jane Roe",
			"email":    "jane@example.com",
		},
		"experience": []map[string]any{
			{"position": "Engineer", "company": "Acme", "startDate": "2020-01-01"},
		},
	}
}

func createCV(t *testing.T, router *gin.Engine) cvResponse {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/v1/cvs", gin.H{"record": validRecord()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create cv: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp cvResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp
}

func TestCreateAndGetCV(t *testing.T) {
	router, _ := newTestRouter(t)

	created := createCV(t, router)
	if created.Version != 1 || created.TemplateID != "modern" {
		t.Fatalf("unexpected created cv: %+v", created)
	}

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/v1/cvs/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cv: status %d", rec.Code)
	}
}

func TestCreateCVValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	record := validRecord()
	delete(record["personalInfo"].(map[string]any), "email")
	rec := do(t, router, http.MethodPost, "/v1/cvs", gin.H{"record": record})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "personalInfo.email") {
		t.Fatalf("expected field error in body: %s", rec.Body.String())
	}
}

func TestUpdateConflictReturns409(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createCV(t, router)
	path := fmt.Sprintf("/v1/cvs/%d", created.ID)

	rec := do(t, router, http.MethodPut, path, gin.H{"record": validRecord()})
	if rec.Code != http.StatusOK {
		t.Fatalf("first update: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPut, path, gin.H{
		"record":          validRecord(),
		"expectedVersion": 1,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update: status %d, want 409", rec.Code)
	}
}

func TestChangeTemplateKeepsVersionNumber(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createCV(t, router)

	rec := do(t, router, http.MethodPut, fmt.Sprintf("/v1/cvs/%d/template", created.ID), gin.H{"templateId": "minimal"})
	if rec.Code != http.StatusOK {
		t.Fatalf("change template: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp cvResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TemplateID != "minimal" || resp.Version != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}

	rec = do(t, router, http.MethodPut, fmt.Sprintf("/v1/cvs/%d/template", created.ID), gin.H{"templateId": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown template: status %d, want 404", rec.Code)
	}
}

func TestPublishAndPublicAccess(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createCV(t, router)

	rec := do(t, router, http.MethodGet, "/v1/public/nonexistent-token", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unpublished lookup: status %d, want 404", rec.Code)
	}

	rec = do(t, router, http.MethodPost, fmt.Sprintf("/v1/cvs/%d/publish", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: status %d, body %s", rec.Code, rec.Body.String())
	}
	var pub struct {
		Token      string `json:"token"`
		PublicPath string `json:"publicPath"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pub); err != nil {
		t.Fatalf("decode publish response: %v", err)
	}
	if pub.Token == "" || !strings.HasSuffix(pub.PublicPath, pub.Token) {
		t.Fatalf("unexpected publish response %+v", pub)
	}

	rec = do(t, router, http.MethodGet, "/v1/public/"+pub.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public access: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Jane Roe") {
		t.Fatalf("public record missing content: %s", rec.Body.String())
	}
}

func TestExportFormats(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createCV(t, router)
	base := fmt.Sprintf("/v1/cvs/%d/export", created.ID)

	rec := do(t, router, http.MethodGet, base+"?format=json", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("json export: status %d, content-type %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = do(t, router, http.MethodGet, base+"?format=html", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Jane Roe") {
		t.Fatalf("html export: status %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, base+"?format=pdf", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf export: status %d, content-type %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = do(t, router, http.MethodGet, base+"?format=docx", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported export: status %d", rec.Code)
	}
}

func multipartImport(t *testing.T, router *gin.Engine, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/cvs/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestImportInfersFormatFromExtension(t *testing.T) {
	router, _ := newTestRouter(t)

	doc, _ := json.Marshal(validRecord())
	rec := multipartImport(t, router, "resume.json", doc, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import: status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	if resp.Parsing.Parser != "json" {
		t.Fatalf("parser = %q, want json", resp.Parsing.Parser)
	}
	if resp.Parsing.QualityScore <= 0 {
		t.Fatalf("quality score = %d", resp.Parsing.QualityScore)
	}
}

func TestImportCSVFile(t *testing.T) {
	router, _ := newTestRouter(t)

	csvDoc := strings.Join([]string{
		"Full Name,Email,Position,Company,Start Date,End Date",
		"John Doe,john@example.com,Engineer,Acme,Jan 2020,Dec 2022",
	}, "\n")
	rec := multipartImport(t, router, "resume.csv", []byte(csvDoc), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("csv import: status %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "2020-01-01") {
		t.Fatalf("expected normalized start date, body %s", rec.Body.String())
	}
}

func TestImportMalformedFileReturnsFormatError(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := multipartImport(t, router, "resume.json", []byte("{broken"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Code   int      `json:"code"`
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != 4002 || len(resp.Errors) != 1 {
		t.Fatalf("unexpected error response %+v", resp)
	}
}

func TestImportExplicitFormatOverridesExtension(t *testing.T) {
	router, _ := newTestRouter(t)

	yamlDoc := strings.Join([]string{
		"personalInfo:",
		"  fullName: Jane Roe",
		"  email: jane@example.com",
	}, "\n")
	rec := multipartImport(t, router, "resume.txt", []byte(yamlDoc), map[string]string{"format": "yaml"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("yaml import: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	if resp.Parsing.Parser != "yaml" {
		t.Fatalf("parser = %q, want yaml", resp.Parsing.Parser)
	}
}

func TestVersionsAndStats(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createCV(t, router)

	do(t, router, http.MethodPut, fmt.Sprintf("/v1/cvs/%d", created.ID), gin.H{"record": validRecord()})

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/v1/cvs/%d/versions", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("versions: status %d", rec.Code)
	}
	var versions []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &versions); err != nil {
		t.Fatalf("decode versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 version snapshots, got %d", len(versions))
	}

	rec = do(t, router, http.MethodGet, "/v1/cvs/stats", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"totalCvs":1`) {
		t.Fatalf("stats: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteCV(t *testing.T) {
	router, _ := newTestRouter(t)
	created := createCV(t, router)
	path := fmt.Sprintf("/v1/cvs/%d", created.ID)

	rec := do(t, router, http.MethodDelete, path, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, path, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestInferImportFormat(t *testing.T) {
	cases := []struct {
		explicit, filename, want string
	}{
		{"yaml", "resume.csv", "yaml"},
		{"", "resume.csv", "csv"},
		{"", "resume.YML", "yml"},
		{"", "resume.yaml", "yaml"},
		{"", "resume.txt", "json"},
		{"", "resume", "json"},
	}
	for _, tc := range cases {
		if got := inferImportFormat(tc.explicit, tc.filename); got != tc.want {
			t.Errorf("inferImportFormat(%q, %q) = %q, want %q", tc.explicit, tc.filename, got, tc.want)
		}
	}
}
