package template

import (
	"errors"
	"fmt"

	"cvstudio/internal/schema"
)

// 模板类别与输出格式的固定取值。
const (
	CategoryModern   = "modern"
	CategoryClassic  = "classic"
	CategoryCreative = "creative"
	CategoryMinimal  = "minimal"

	OutputHTML = "html"
)

// Metadata 描述一个模板，注册后在进程生命周期内不可变。
type Metadata struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	OutputFormat string   `json:"outputFormat"`
	Sections     []string `json:"supportedSections"`
}

// RenderOptions 控制单次渲染的主题等外观参数。
type RenderOptions struct {
	Theme string
}

// Template 是视觉风格的多态接口：把规范简历转换为风格化中间标记。
type Template interface {
	Metadata() Metadata
	// Render 做数据替换与条件块处理；可选字段缺失渲染为空，
	// 整个 section 的后备数组为空时完全省略该 section。
	Render(r *schema.Resume, opts RenderOptions) (string, error)
	// Stylesheet 返回应用了主题调色板的样式表。
	Stylesheet(theme Theme) string
	// ValidateData 是模板前置条件的形状检查（非内容校验）。
	ValidateData(r *schema.Resume) error
}

// markupTemplate 是内置模板的统一实现：元数据 + 标记源 + 样式源。
type markupTemplate struct {
	meta     Metadata
	compiled Compiled
	css      string
}

type renderContext struct {
	*schema.Resume
	Theme Theme
}

func newMarkupTemplate(engine Engine, meta Metadata, source, css string) (*markupTemplate, error) {
	compiled, err := engine.Compile(meta.ID, source)
	if err != nil {
		return nil, err
	}
	return &markupTemplate{meta: meta, compiled: compiled, css: css}, nil
}

func (t *markupTemplate) Metadata() Metadata { return t.meta }

func (t *markupTemplate) Render(r *schema.Resume, opts RenderOptions) (string, error) {
	if err := t.ValidateData(r); err != nil {
		return "", err
	}
	// 渲染前兜底归一，保证 nil 列表不会让条件块行为分叉。
	r.EnsureDefaults()
	return t.compiled.Render(renderContext{Resume: r, Theme: ResolveTheme(opts.Theme)})
}

func (t *markupTemplate) Stylesheet(theme Theme) string {
	return applyTheme(t.css, theme)
}

func (t *markupTemplate) ValidateData(r *schema.Resume) error {
	if r == nil {
		return errors.New("resume data is required")
	}
	if r.Experience == nil {
		return fmt.Errorf("template %q requires the experience section to be present", t.meta.ID)
	}
	if r.Education == nil {
		return fmt.Errorf("template %q requires the education section to be present", t.meta.ID)
	}
	return nil
}
