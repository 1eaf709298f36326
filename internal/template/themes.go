package template

import (
	"sort"
	"strings"
)

// Theme 是固定调色板。
type Theme struct {
	Name      string `json:"name"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// DefaultThemeName 是未知主题名的回退目标。
const DefaultThemeName = "slate"

var themes = map[string]Theme{
	"slate":    {Name: "slate", Primary: "#1e293b", Secondary: "#475569", Accent: "#2563eb"},
	"graphite": {Name: "graphite", Primary: "#18181b", Secondary: "#52525b", Accent: "#dc2626"},
	"forest":   {Name: "forest", Primary: "#14532d", Secondary: "#166534", Accent: "#ca8a04"},
	"ocean":    {Name: "ocean", Primary: "#0c4a6e", Secondary: "#0369a1", Accent: "#0891b2"},
	"plum":     {Name: "plum", Primary: "#581c87", Secondary: "#7e22ce", Accent: "#db2777"},
}

// ResolveTheme 按名称解析主题，未知名称回退默认主题而不是报错。
func ResolveTheme(name string) Theme {
	if theme, ok := themes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return theme
	}
	return themes[DefaultThemeName]
}

// ThemeNames 返回全部可用主题名。
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	return names
}

// Themes 返回全部主题（按名称排序）。
func Themes() []Theme {
	names := ThemeNames()
	sort.Strings(names)
	all := make([]Theme, 0, len(names))
	for _, name := range names {
		all = append(all, themes[name])
	}
	return all
}

// applyTheme 将样式表中的调色板占位符替换为具体颜色。
func applyTheme(css string, theme Theme) string {
	return strings.NewReplacer(
		"{primary}", theme.Primary,
		"{secondary}", theme.Secondary,
		"{accent}", theme.Accent,
	).Replace(css)
}
