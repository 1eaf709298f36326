package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cvstudio/internal/schema"
)

var (
	// ErrUnsupportedFormat 表示没有任何解析器声明支持该格式。
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrParserNotFound 表示按类型查找失败。
	ErrParserNotFound = errors.New("parser not found")
	// ErrDuplicateParser 表示重复注册，属于启动期配置错误。
	ErrDuplicateParser = errors.New("parser already registered")
)

// 同一格式被多个解析器声明时的固定优先级。
var detectPriority = []string{"json", "yaml", "csv"}

// Registry 持有全部已注册解析器，负责 格式->解析器 解析与自动探测。
// 解析器在进程启动时注册一次，Registry 需显式构造并注入，而不是包级全局状态。
type Registry struct {
	mu        sync.RWMutex
	parsers   map[string]Parser
	order     []string
	validator *schema.Validator
}

func NewRegistry(validator *schema.Validator) *Registry {
	return &Registry{
		parsers:   make(map[string]Parser),
		validator: validator,
	}
}

// NewDefaultRegistry 构造并注册全部内置解析器。
func NewDefaultRegistry(validator *schema.Validator) (*Registry, error) {
	r := NewRegistry(validator)
	for _, p := range []Parser{NewJSONParser(), NewYAMLParser(), NewCSVParser()} {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(p Parser) error {
	parserType := p.Metadata().Type
	if strings.TrimSpace(parserType) == "" {
		return errors.New("parser type must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.parsers[parserType]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateParser, parserType)
	}
	r.parsers[parserType] = p
	r.order = append(r.order, parserType)
	return nil
}

func (r *Registry) Get(parserType string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parsers[parserType]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			ErrParserNotFound, parserType, strings.Join(r.typesLocked(), ", "))
	}
	return p, nil
}

// ByFormat 返回声明支持该格式的解析器，格式匹配大小写不敏感。
func (r *Registry) ByFormat(format string) []Parser {
	format = strings.ToLower(strings.TrimSpace(format))

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []Parser{}
	for _, parserType := range r.order {
		p := r.parsers[parserType]
		for _, f := range p.Metadata().Formats {
			if strings.ToLower(f) == format {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}

// AutoDetect 按格式选择解析器。多个候选时按固定优先级裁决，
// 无候选是致命的"不支持格式"错误。
func (r *Registry) AutoDetect(format string) (Parser, error) {
	candidates := r.ByFormat(format)
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, format, strings.Join(r.Formats(), ", "))
	case 1:
		return candidates[0], nil
	}

	byType := make(map[string]Parser, len(candidates))
	for _, p := range candidates {
		byType[p.Metadata().Type] = p
	}
	for _, parserType := range detectPriority {
		if p, ok := byType[parserType]; ok {
			return p, nil
		}
	}
	return candidates[0], nil
}

// Parse 按显式解析器类型或自动探测结果执行解析。
func (r *Registry) Parse(input []byte, format, parserType string, opts Options) (*Result, error) {
	var (
		p   Parser
		err error
	)
	if parserType != "" {
		p, err = r.Get(parserType)
	} else {
		p, err = r.AutoDetect(format)
	}
	if err != nil {
		return nil, err
	}
	return Parse(p, r.validator, input, opts), nil
}

// Types 返回全部已注册解析器类型（排序稳定）。
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.typesLocked()
}

func (r *Registry) typesLocked() []string {
	types := make([]string, len(r.order))
	copy(types, r.order)
	sort.Strings(types)
	return types
}

// Formats 返回全部支持的格式（去重、排序）。
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]struct{}{}
	formats := []string{}
	for _, parserType := range r.order {
		for _, f := range r.parsers[parserType].Metadata().Formats {
			f = strings.ToLower(f)
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			formats = append(formats, f)
		}
	}
	sort.Strings(formats)
	return formats
}

// Stats 返回每个解析器的能力描述，供运维/API 发现。
func (r *Registry) Stats() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]Metadata, 0, len(r.order))
	for _, parserType := range r.order {
		stats = append(stats, r.parsers[parserType].Metadata())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Type < stats[j].Type })
	return stats
}
