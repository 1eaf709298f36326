package template

import (
	"fmt"
	"html/template"
	"strings"
)

// Compiled 是编译后的模板，可重复渲染。
type Compiled interface {
	Render(data any) (string, error)
}

// Engine 是可注入的模板引擎能力：占位符替换与条件块由实现承担，
// 具体模板技术可以整体替换而不触碰 Template 实现。
type Engine interface {
	Compile(name, source string) (Compiled, error)
}

// HTMLEngine 基于 html/template 实现 Engine。
type HTMLEngine struct {
	funcs template.FuncMap
}

func NewHTMLEngine() *HTMLEngine {
	return &HTMLEngine{
		funcs: template.FuncMap{
			"join": strings.Join,
		},
	}
}

func (e *HTMLEngine) Compile(name, source string) (Compiled, error) {
	tpl, err := template.New(name).Funcs(e.funcs).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("compile template %q: %w", name, err)
	}
	return &htmlCompiled{tpl: tpl}, nil
}

type htmlCompiled struct {
	tpl *template.Template
}

func (c *htmlCompiled) Render(data any) (string, error) {
	var buf strings.Builder
	if err := c.tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %q: %w", c.tpl.Name(), err)
	}
	return buf.String(), nil
}
