package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cvstudio/internal/schema"
	"cvstudio/internal/template"
)

// fakeEngine 模拟受管渲染引擎：按配置延迟返回，并统计打开的渲染面。
type fakeEngine struct {
	delay    time.Duration
	fail     error
	surfaces atomic.Int64
	calls    atomic.Int64
}

func (e *fakeEngine) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	e.calls.Add(1)
	e.surfaces.Add(1)
	defer e.surfaces.Add(-1)

	if e.fail != nil {
		return nil, e.fail
	}
	select {
	case <-time.After(e.delay):
		return []byte("%PDF-1.4 " + html[:20]), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *fakeEngine) Healthy() bool     { return true }
func (e *fakeEngine) OpenSurfaces() int { return int(e.surfaces.Load()) }
func (e *fakeEngine) Close() error      { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipeline(t *testing.T, engine PDFEngine, timeout time.Duration) *Pipeline {
	t.Helper()
	registry, err := template.NewDefaultRegistry(template.NewHTMLEngine())
	if err != nil {
		t.Fatalf("build template registry: %v", err)
	}
	return NewPipeline(registry, engine, timeout, discardLogger())
}

func renderableResume() *schema.Resume {
	r := &schema.Resume{
		PersonalInfo: schema.PersonalInfo{FullName: "Jane Roe", Email: "jane@example.com"},
		Experience:   []schema.Experience{{Company: "Acme", Position: "Engineer", StartDate: "2020-01-01"}},
	}
	r.EnsureDefaults()
	return r
}

func TestRenderHTMLWrapsDocumentShell(t *testing.T) {
	p := testPipeline(t, &fakeEngine{}, time.Second)

	htmlDoc, err := p.RenderHTML("modern", renderableResume(), template.RenderOptions{Theme: "ocean"})
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "<style>", "Jane Roe", "</html>"} {
		if !strings.Contains(htmlDoc, want) {
			t.Errorf("document shell missing %q", want)
		}
	}
	if !strings.Contains(htmlDoc, template.ResolveTheme("ocean").Primary) {
		t.Error("stylesheet not themed")
	}
}

func TestRenderHTMLUnknownTemplate(t *testing.T) {
	p := testPipeline(t, &fakeEngine{}, time.Second)
	if _, err := p.RenderHTML("nope", renderableResume(), template.RenderOptions{}); !errors.Is(err, template.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestRenderPDFSuccess(t *testing.T) {
	engine := &fakeEngine{delay: 5 * time.Millisecond}
	p := testPipeline(t, engine, time.Second)

	data, err := p.RenderPDF(context.Background(), "classic", renderableResume(), template.RenderOptions{})
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if len(data) == 0 {
		t.Error("empty pdf bytes")
	}
}

func TestRenderPDFTimeoutReclaimsSurfaces(t *testing.T) {
	engine := &fakeEngine{delay: time.Second}
	p := testPipeline(t, engine, 20*time.Millisecond)

	baseline := p.OpenSurfaces()
	_, err := p.RenderPDF(context.Background(), "modern", renderableResume(), template.RenderOptions{})
	if !errors.Is(err, ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
	if got := p.OpenSurfaces(); got != baseline {
		t.Errorf("render surface leaked: open=%d baseline=%d", got, baseline)
	}
}

func TestRenderMultiplePartialFailure(t *testing.T) {
	engine := &fakeEngine{fail: errors.New("browser crashed")}
	p := testPipeline(t, engine, time.Second)

	results := p.RenderMultiple(context.Background(), "modern", renderableResume(),
		[]string{FormatHTML, FormatPDF}, template.RenderOptions{})

	if len(results) != 2 {
		t.Fatalf("results = %v", results)
	}
	// PDF 失败不影响 HTML 成功。
	if res := results[FormatHTML]; !res.Success || len(res.Bytes) == 0 {
		t.Errorf("html result = %+v, err=%v", res, res.Err)
	}
	if res := results[FormatPDF]; res.Success || res.Err == nil {
		t.Errorf("pdf result should fail, got %+v", res)
	}
}

func TestRenderMultipleUnsupportedFormat(t *testing.T) {
	p := testPipeline(t, &fakeEngine{}, time.Second)

	results := p.RenderMultiple(context.Background(), "modern", renderableResume(),
		[]string{"docx"}, template.RenderOptions{})
	if res := results["docx"]; res.Success || res.Err == nil {
		t.Errorf("unsupported format should fail, got %+v", res)
	}
}
