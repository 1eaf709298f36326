package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cvstudio/internal/schema"
	"cvstudio/internal/template"
)

// DefaultTimeout 是单次 PDF 渲染的硬超时。
const DefaultTimeout = 30 * time.Second

// 渲染输出格式。
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// Result 汇总单个格式的渲染结果。
type Result struct {
	Success bool   `json:"success"`
	Format  string `json:"format"`
	Bytes   []byte `json:"-"`
	Err     error  `json:"-"`
}

// Pipeline 把模板编译结果与受管渲染引擎串成完整的导出管线。
type Pipeline struct {
	templates *template.Registry
	engine    PDFEngine
	timeout   time.Duration
	logger    *slog.Logger
}

func NewPipeline(templates *template.Registry, engine PDFEngine, timeout time.Duration, logger *slog.Logger) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pipeline{
		templates: templates,
		engine:    engine,
		timeout:   timeout,
		logger:    logger,
	}
}

// RenderHTML 把模板标记包进完整文档外壳，样式表内联。
func (p *Pipeline) RenderHTML(templateID string, r *schema.Resume, opts template.RenderOptions) (string, error) {
	tpl, err := p.templates.Get(templateID)
	if err != nil {
		return "", err
	}

	markup, err := tpl.Render(r, opts)
	if err != nil {
		return "", fmt.Errorf("render template %q: %w", templateID, err)
	}

	theme := template.ResolveTheme(opts.Theme)
	return documentShell(r.PersonalInfo.FullName, tpl.Stylesheet(theme), markup), nil
}

// RenderPDF 先产出 HTML，再驱动共享引擎栅格化为 PDF。
// 渲染受硬超时约束，超时以 ErrRenderTimeout 上报而不是悬挂调用方。
func (p *Pipeline) RenderPDF(ctx context.Context, templateID string, r *schema.Resume, opts template.RenderOptions) ([]byte, error) {
	htmlDoc, err := p.RenderHTML(templateID, r, opts)
	if err != nil {
		return nil, err
	}

	renderCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	data, err := p.engine.RenderPDF(renderCtx, htmlDoc)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrRenderTimeout, p.timeout)
		}
		p.logger.Error("pdf render failed",
			slog.String("template_id", templateID),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return nil, err
	}

	p.logger.Info("pdf render completed",
		slog.String("template_id", templateID),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

// RenderMultiple 并行渲染同一份简历到多个输出格式。
// 单个格式失败不会中断其他格式，逐格式返回结果。
func (p *Pipeline) RenderMultiple(ctx context.Context, templateID string, r *schema.Resume, formats []string, opts template.RenderOptions) map[string]Result {
	results := make([]Result, len(formats))

	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		g.Go(func() error {
			results[i] = p.renderOne(gctx, templateID, r, format, opts)
			// 失败只记录在各自的 Result 里，始终返回 nil 以免取消兄弟任务。
			return nil
		})
	}
	_ = g.Wait()

	byFormat := make(map[string]Result, len(formats))
	for _, res := range results {
		byFormat[res.Format] = res
	}
	return byFormat
}

func (p *Pipeline) renderOne(ctx context.Context, templateID string, r *schema.Resume, format string, opts template.RenderOptions) Result {
	res := Result{Format: format}
	switch format {
	case FormatHTML:
		htmlDoc, err := p.RenderHTML(templateID, r, opts)
		if err != nil {
			res.Err = err
			return res
		}
		res.Success = true
		res.Bytes = []byte(htmlDoc)
	case FormatPDF:
		data, err := p.RenderPDF(ctx, templateID, r, opts)
		if err != nil {
			res.Err = err
			return res
		}
		res.Success = true
		res.Bytes = data
	default:
		res.Err = fmt.Errorf("unsupported render format %q", format)
	}
	return res
}

// Healthy 报告底层渲染引擎是否存活可用。
func (p *Pipeline) Healthy() bool {
	return p.engine.Healthy()
}

// OpenSurfaces 暴露当前打开的渲染面数量。
func (p *Pipeline) OpenSurfaces() int {
	return p.engine.OpenSurfaces()
}

func documentShell(title, css, markup string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>%s</title>
<style>%s</style>
</head>
<body>
%s
</body>
</html>`, html.EscapeString(title), css, markup)
}
