package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLParser 解析缩进式键值/列表文本。
// 嵌套映射、短横线列表与标量强制转换（布尔/数字/引号字符串）由 yaml.v3 承担，
// 字段抽取与 JSON 解析器共享同一套文档映射逻辑。
type YAMLParser struct{}

func NewYAMLParser() *YAMLParser { return &YAMLParser{} }

func (p *YAMLParser) Metadata() Metadata {
	return Metadata{
		Type:     "yaml",
		Name:     "YAML resume parser",
		Formats:  []string{"yaml", "yml"},
		Sections: allSections,
	}
}

func (p *YAMLParser) ParseRaw(input []byte, _ Options) *Result {
	var doc map[string]any
	if err := yaml.Unmarshal(input, &doc); err != nil {
		return failure(fmt.Sprintf("invalid YAML: %v", err))
	}
	if doc == nil {
		return failure("empty YAML document")
	}

	return &Result{
		Success:  true,
		Data:     extractResume(doc),
		Errors:   []string{},
		Warnings: []string{},
	}
}
