package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrTemplateNotFound 表示按 id 查找失败。
	ErrTemplateNotFound = errors.New("template not found")
	// ErrDuplicateTemplate 表示重复注册，属于启动期配置错误。
	ErrDuplicateTemplate = errors.New("template already registered")
)

// Registry 持有全部已注册模板，按 id/类别/输出格式解析。
// 与解析器注册表一样显式构造、依赖注入，不做包级全局状态。
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// NewDefaultRegistry 用给定引擎编译并注册全部内置模板。
func NewDefaultRegistry(engine Engine) (*Registry, error) {
	r := NewRegistry()
	for _, spec := range builtinTemplates() {
		tpl, err := newMarkupTemplate(engine, spec.meta, spec.source, spec.css)
		if err != nil {
			return nil, err
		}
		if err := r.Register(tpl); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t Template) error {
	id := t.Metadata().ID
	if strings.TrimSpace(id) == "" {
		return errors.New("template id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTemplate, id)
	}
	r.templates[id] = t
	r.order = append(r.order, id)
	return nil
}

func (r *Registry) Get(id string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}
	return t, nil
}

// Has 报告模板 id 是否已注册。
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[id]
	return ok
}

func (r *Registry) ByCategory(category string) []Template {
	category = strings.ToLower(strings.TrimSpace(category))
	return r.filter(func(m Metadata) bool { return m.Category == category })
}

func (r *Registry) ByOutputFormat(format string) []Template {
	format = strings.ToLower(strings.TrimSpace(format))
	return r.filter(func(m Metadata) bool { return m.OutputFormat == format })
}

// Search 在名称/描述/类别上做关键字匹配。
func (r *Registry) Search(query string) []Template {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return r.All()
	}
	return r.filter(func(m Metadata) bool {
		return strings.Contains(strings.ToLower(m.Name), query) ||
			strings.Contains(strings.ToLower(m.Description), query) ||
			strings.Contains(m.Category, query)
	})
}

// All 按注册顺序返回全部模板。
func (r *Registry) All() []Template {
	return r.filter(func(Metadata) bool { return true })
}

// Default 返回稳定的默认模板：优先 "modern"，否则取 id 字典序最小者。
func (r *Registry) Default() (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.templates[CategoryModern]; ok {
		return t, nil
	}
	if len(r.order) == 0 {
		return nil, fmt.Errorf("%w: registry is empty", ErrTemplateNotFound)
	}
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	sort.Strings(ids)
	return r.templates[ids[0]], nil
}

func (r *Registry) filter(keep func(Metadata) bool) []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []Template{}
	for _, id := range r.order {
		if t := r.templates[id]; keep(t.Metadata()) {
			matched = append(matched, t)
		}
	}
	return matched
}
