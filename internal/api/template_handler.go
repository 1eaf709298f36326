package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvstudio/internal/template"
)

// TemplateHandler 暴露模板注册表的发现与预览接口。
type TemplateHandler struct {
	templates *template.Registry
}

// NewTemplateHandler 构造 TemplateHandler。
func NewTemplateHandler(templates *template.Registry) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

type templateItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	OutputFormat string   `json:"outputFormat"`
	Sections     []string `json:"sections"`
}

// ListTemplates 列出模板, 支持 category/format/q 过滤。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var matched []template.Template
	switch {
	case c.Query("q") != "":
		matched = h.templates.Search(c.Query("q"))
	case c.Query("category") != "":
		matched = h.templates.ByCategory(strings.ToLower(c.Query("category")))
	default:
		matched = h.templates.All()
	}

	format := strings.ToLower(c.Query("format"))
	items := make([]templateItem, 0, len(matched))
	for _, t := range matched {
		meta := t.Metadata()
		if format != "" && meta.OutputFormat != format {
			continue
		}
		items = append(items, newTemplateItem(meta))
	}
	c.JSON(http.StatusOK, items)
}

// GetTemplate 返回单个模板的元数据。
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	t, err := h.templates.Get(c.Param("id"))
	if err != nil {
		NotFound(c, "template not found")
		return
	}
	c.JSON(http.StatusOK, newTemplateItem(t.Metadata()))
}

// GetThemes 列出可用配色主题。
func (h *TemplateHandler) GetThemes(c *gin.Context) {
	themes := template.Themes()
	items := make([]gin.H, 0, len(themes))
	for _, th := range themes {
		items = append(items, gin.H{
			"name":      th.Name,
			"primary":   th.Primary,
			"secondary": th.Secondary,
			"accent":    th.Accent,
			"default":   th.Name == template.DefaultThemeName,
		})
	}
	c.JSON(http.StatusOK, items)
}

func newTemplateItem(meta template.Metadata) templateItem {
	return templateItem{
		ID:           meta.ID,
		Name:         meta.Name,
		Description:  meta.Description,
		Category:     meta.Category,
		OutputFormat: meta.OutputFormat,
		Sections:     meta.Sections,
	}
}
