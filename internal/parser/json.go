package parser

import (
	"encoding/json"
	"fmt"
)

// JSONParser 解析标准简历 JSON（规范导出格式或 JSON-Resume 风格）。
type JSONParser struct{}

func NewJSONParser() *JSONParser { return &JSONParser{} }

func (p *JSONParser) Metadata() Metadata {
	return Metadata{
		Type:     "json",
		Name:     "Standard resume JSON parser",
		Formats:  []string{"json"},
		Sections: allSections,
	}
}

// ParseRaw 解析 JSON 文档。
// JSON 非法时返回单个错误且零告警，不尝试部分抽取。
func (p *JSONParser) ParseRaw(input []byte, _ Options) *Result {
	var doc map[string]any
	if err := json.Unmarshal(input, &doc); err != nil {
		return failure(fmt.Sprintf("invalid JSON: %v", err))
	}

	return &Result{
		Success:  true,
		Data:     extractResume(doc),
		Errors:   []string{},
		Warnings: []string{},
	}
}
