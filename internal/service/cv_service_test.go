package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cvstudio/internal/database"
	"cvstudio/internal/parser"
	"cvstudio/internal/render"
	"cvstudio/internal/schema"
	"cvstudio/internal/template"
)

// memoryRepo 是 Repository 的内存实现, 语义对齐 database.CVRepository。
type memoryRepo struct {
	nextID   uint
	cvs      map[uint]*database.CV
	versions []database.CVVersion
	imports  []database.ImportRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, cvs: map[uint]*database.CV{}}
}

func (m *memoryRepo) Create(_ context.Context, cv *database.CV) error {
	cv.ID = m.nextID
	m.nextID++
	cv.UpdatedAt = time.Now()
	clone := *cv
	m.cvs[cv.ID] = &clone
	return nil
}

func (m *memoryRepo) FindByIDAndOwner(_ context.Context, id, ownerID uint) (*database.CV, error) {
	cv, ok := m.cvs[id]
	if !ok || cv.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *cv
	return &clone, nil
}

func (m *memoryRepo) ListByOwner(_ context.Context, ownerID uint) ([]database.CV, error) {
	var out []database.CV
	for _, cv := range m.cvs {
		if cv.OwnerID == ownerID {
			out = append(out, *cv)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateRecord(_ context.Context, id, ownerID uint, expectedVersion int, record datatypes.JSON, title string) (*database.CV, error) {
	cv, ok := m.cvs[id]
	if !ok || cv.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	if cv.Version != expectedVersion {
		return nil, database.ErrVersionConflict
	}
	cv.Record = record
	cv.Version++
	cv.UpdatedAt = time.Now()
	if title != "" {
		cv.Title = title
	}
	clone := *cv
	return &clone, nil
}

func (m *memoryRepo) UpdateTemplate(_ context.Context, id, ownerID uint, templateID string) error {
	cv, ok := m.cvs[id]
	if !ok || cv.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	cv.TemplateID = templateID
	return nil
}

func (m *memoryRepo) Publish(_ context.Context, id, ownerID uint, token string, at time.Time) error {
	cv, ok := m.cvs[id]
	if !ok || cv.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	cv.IsPublished = true
	cv.PublicToken = &token
	cv.PublishedAt = &at
	return nil
}

func (m *memoryRepo) FindPublished(_ context.Context, token string) (*database.CV, error) {
	for _, cv := range m.cvs {
		if cv.IsPublished && cv.PublicToken != nil && *cv.PublicToken == token {
			clone := *cv
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryRepo) Delete(_ context.Context, id, ownerID uint) error {
	cv, ok := m.cvs[id]
	if !ok || cv.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(m.cvs, id)
	return nil
}

func (m *memoryRepo) SaveVersion(_ context.Context, v *database.CVVersion) error {
	m.versions = append(m.versions, *v)
	return nil
}

func (m *memoryRepo) ListVersions(_ context.Context, id, ownerID uint) ([]database.CVVersion, error) {
	if _, ok := m.cvs[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var out []database.CVVersion
	for _, v := range m.versions {
		if v.CVID == id {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryRepo) SaveImportRecord(_ context.Context, rec *database.ImportRecord) error {
	m.imports = append(m.imports, *rec)
	return nil
}

func (m *memoryRepo) Stats(_ context.Context, ownerID uint) (*database.OwnerStats, error) {
	stats := &database.OwnerStats{}
	for _, cv := range m.cvs {
		if cv.OwnerID != ownerID {
			continue
		}
		stats.TotalCVs++
		if cv.IsPublished {
			stats.PublishedCVs++
		}
		if cv.UpdatedAt.After(time.Now().AddDate(0, 0, -30)) {
			stats.RecentActivity++
		}
	}
	for _, rec := range m.imports {
		if rec.OwnerID == ownerID {
			stats.Imports++
		}
	}
	return stats, nil
}

// stubPDFEngine 返回固定字节, 让导出路径无需真实浏览器。
type stubPDFEngine struct{}

func (stubPDFEngine) RenderPDF(_ context.Context, _ string) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}
func (stubPDFEngine) Healthy() bool     { return true }
func (stubPDFEngine) OpenSurfaces() int { return 0 }
func (stubPDFEngine) Close() error      { return nil }

func newTestService(t *testing.T) (*CVService, *memoryRepo) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := schema.NewValidator()
	parsers, err := parser.NewDefaultRegistry(validator)
	if err != nil {
		t.Fatalf("parser registry: %v", err)
	}
	templates, err := template.NewDefaultRegistry(template.NewHTMLEngine())
	if err != nil {
		t.Fatalf("template registry: %v", err)
	}
	pipeline := render.NewPipeline(templates, stubPDFEngine{}, time.Second, logger)
	repo := newMemoryRepo()
	return NewCVService(repo, validator, parsers, templates, pipeline, logger), repo
}

func testResume(name string) *schema.Resume {
	r := &schema.Resume{}
	r.PersonalInfo.FullName = name
	r.PersonalInfo.Email = "someone@example.com"
	r.Experience = []schema.Experience{{
		Position:  "Engineer",
		Company:   "Acme",
		StartDate: "2020-01-01",
	}}
	r.EnsureDefaults()
	return r
}

func TestCreateAssignsDefaultsAndSnapshots(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	cv, err := svc.Create(ctx, 1, CreateInput{Record: testResume("Jane Roe")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cv.Version != 1 {
		t.Fatalf("version = %d, want 1", cv.Version)
	}
	if cv.TemplateID != "modern" {
		t.Fatalf("template = %q, want default modern", cv.TemplateID)
	}
	if cv.Title != "Jane Roe" {
		t.Fatalf("title = %q, want derived from full name", cv.Title)
	}
	if len(repo.versions) != 1 || repo.versions[0].Version != 1 {
		t.Fatalf("expected initial version snapshot, got %+v", repo.versions)
	}
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	svc, _ := newTestService(t)

	r := testResume("Jane Roe")
	r.PersonalInfo.Email = ""
	_, err := svc.Create(context.Background(), 1, CreateInput{Record: r})

	var vErr *ValidationFailedError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationFailedError, got %v", err)
	}
	found := false
	for _, msg := range vErr.Errors {
		if strings.Contains(msg, "personalInfo.email") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected email field error, got %v", vErr.Errors)
	}
}

func TestCreateRejectsUnknownTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), 1, CreateInput{
		Record:     testResume("Jane Roe"),
		TemplateID: "nope",
	})
	if !errors.Is(err, template.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestUpdateIncrementsVersionMonotonically(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	cv, _ := svc.Create(ctx, 1, CreateInput{Record: testResume("Jane Roe")})

	for want := 2; want <= 4; want++ {
		updated, err := svc.Update(ctx, cv.ID, 1, UpdateInput{Record: testResume("Jane Roe")})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if updated.Version != want {
			t.Fatalf("version = %d, want %d", updated.Version, want)
		}
	}
	if len(repo.versions) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(repo.versions))
	}
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cv, _ := svc.Create(ctx, 1, CreateInput{Record: testResume("Jane Roe")})

	if _, err := svc.Update(ctx, cv.ID, 1, UpdateInput{Record: testResume("Jane Roe")}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err := svc.Update(ctx, cv.ID, 1, UpdateInput{
		Record:          testResume("Jane Roe"),
		ExpectedVersion: 1,
	})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestOwnershipCollapsesToNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cv, _ := svc.Create(ctx, 1, CreateInput{Record: testResume("Jane Roe")})

	if _, err := svc.Get(ctx, cv.ID, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get by stranger: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, cv.ID, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete by stranger: expected ErrNotFound, got %v", err)
	}
}

func TestChangeTemplateKeepsVersion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cv, _ := svc.Create(ctx, 1, CreateInput{Record: testResume("Jane Roe")})

	if err := svc.ChangeTemplate(ctx, cv.ID, 1, "classic"); err != nil {
		t.Fatalf("ChangeTemplate: %v", err)
	}
	got, _ := svc.Get(ctx, cv.ID, 1)
	if got.TemplateID != "classic" {
		t.Fatalf("template = %q, want classic", got.TemplateID)
	}
	if got.Version != 1 {
		t.Fatalf("version changed to %d on template switch", got.Version)
	}

	if err := svc.ChangeTemplate(ctx, cv.ID, 1, "nope"); !errors.Is(err, template.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestPublishAndPublicVisibility(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cv, _ := svc.Create(ctx, 1, CreateInput{Record: testResume("Jane Roe")})

	if _, err := svc.GetPublic(ctx, "bogus-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unpublished lookup: expected ErrNotFound, got %v", err)
	}

	out, err := svc.Publish(ctx, cv.ID, 1)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(out.Token) != 48 {
		t.Fatalf("token length = %d, want 48 hex chars", len(out.Token))
	}
	if out.PublicPath != "/v1/public/"+out.Token {
		t.Fatalf("public path = %q", out.PublicPath)
	}

	pub, err := svc.GetPublic(ctx, out.Token)
	if err != nil {
		t.Fatalf("GetPublic: %v", err)
	}
	if pub.ID != cv.ID {
		t.Fatalf("got cv %d, want %d", pub.ID, cv.ID)
	}
}

func TestImportFromJSONRecordsProvenance(t *testing.T) {
	svc, repo := newTestService(t)
	doc := `{
		"personalInfo": {"fullName": "John Doe", "email": "john@example.com"},
		"experience": [{"position": "Engineer", "company": "Acme", "startDate": "2020-01-01"}]
	}`

	out, err := svc.ImportFrom(context.Background(), 1, ImportInput{
		Data:       []byte(doc),
		Format:     "json",
		SourceName: "resume.json",
	})
	if err != nil {
		t.Fatalf("ImportFrom: %v", err)
	}
	if out.CV.Version != 1 {
		t.Fatalf("imported version = %d, want 1", out.CV.Version)
	}
	if len(repo.imports) != 1 {
		t.Fatalf("expected one import record, got %d", len(repo.imports))
	}
	rec := repo.imports[0]
	if rec.ParserType != "json" || rec.CVID != out.CV.ID {
		t.Fatalf("unexpected import record %+v", rec)
	}
	if rec.QualityScore <= 0 || rec.QualityScore > 100 {
		t.Fatalf("quality score out of range: %d", rec.QualityScore)
	}
}

func TestImportFromMalformedInputFailsWithoutPersisting(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.ImportFrom(context.Background(), 1, ImportInput{
		Data:   []byte("{not json"),
		Format: "json",
	})
	var impErr *ImportFailedError
	if !errors.As(err, &impErr) {
		t.Fatalf("expected ImportFailedError, got %v", err)
	}
	if len(repo.cvs) != 0 || len(repo.imports) != 0 {
		t.Fatalf("malformed import must not persist anything")
	}
}

func TestExportJSONRoundTripsThroughImport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cv, _ := svc.Create(ctx, 1, CreateInput{Record: testResume("Jane Roe")})

	exported, err := svc.ExportAs(ctx, cv.ID, 1, "json", "", "")
	if err != nil {
		t.Fatalf("ExportAs json: %v", err)
	}
	if exported.ContentType != "application/json" {
		t.Fatalf("content type = %q", exported.ContentType)
	}

	out, err := svc.ImportFrom(ctx, 1, ImportInput{Data: exported.Bytes, Format: "json"})
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	resume, err := svc.Record(out.CV)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if resume.PersonalInfo.FullName != "Jane Roe" {
		t.Fatalf("round trip lost name: %q", resume.PersonalInfo.FullName)
	}
	if len(resume.Experience) != 1 || resume.Experience[0].Company != "Acme" {
		t.Fatalf("round trip lost experience: %+v", resume.Experience)
	}
}

func TestExportHTMLAndPDF(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cv, _ := svc.Create(ctx, 1, CreateInput{Record: testResume("Jane Roe")})

	html, err := svc.ExportAs(ctx, cv.ID, 1, "html", "", "")
	if err != nil {
		t.Fatalf("ExportAs html: %v", err)
	}
	if !strings.Contains(string(html.Bytes), "Jane Roe") {
		t.Fatalf("html export missing name")
	}

	pdf, err := svc.ExportAs(ctx, cv.ID, 1, "pdf", "classic", "ocean")
	if err != nil {
		t.Fatalf("ExportAs pdf: %v", err)
	}
	if pdf.ContentType != "application/pdf" || len(pdf.Bytes) == 0 {
		t.Fatalf("unexpected pdf export: %q, %d bytes", pdf.ContentType, len(pdf.Bytes))
	}

	if _, err := svc.ExportAs(ctx, cv.ID, 1, "docx", "", ""); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestStatsCountsOwnerResources(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, 1, CreateInput{Record: testResume("Jane Roe")})
	b, _ := svc.Create(ctx, 1, CreateInput{Record: testResume("John Doe")})
	svc.Create(ctx, 2, CreateInput{Record: testResume("Someone Else")})
	svc.Publish(ctx, a.ID, 1)

	// 把其中一份推到统计窗口之外, 它不应计入最近活跃。
	repo.cvs[b.ID].UpdatedAt = time.Now().AddDate(0, 0, -60)

	stats, err := svc.Stats(ctx, 1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalCVs != 2 || stats.PublishedCVs != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.RecentActivity != 1 {
		t.Fatalf("recent activity = %d, want 1", stats.RecentActivity)
	}
}
