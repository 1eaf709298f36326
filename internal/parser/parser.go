package parser

import (
	"time"

	"cvstudio/internal/schema"
)

// Metadata 描述一个解析器的能力，供注册表与 API 做发现。
type Metadata struct {
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	Formats  []string `json:"formats"`
	Sections []string `json:"sections"`
}

// Options 携带解析过程的附加信息。
type Options struct {
	SourceName string
}

// ResultMetadata 由共享包装器 Parse 统一填充。
type ResultMetadata struct {
	ParserType  string `json:"parserType"`
	ParseTimeMs int64  `json:"parseTimeMs"`
	DataQuality int    `json:"dataQuality"`
}

// Result 是所有解析路径的统一返回值，解析器不抛出未捕获错误。
// Success=false 时 Data 不可信。
type Result struct {
	Success  bool           `json:"success"`
	Data     *schema.Resume `json:"data,omitempty"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
	Metadata ResultMetadata `json:"metadata"`
}

// Parser 是格式解析的多态接口。
// ParseRaw 只负责结构抽取与字段归一（日期、空白），不做校验——
// 校验与评分由共享包装器 Parse 统一执行。
type Parser interface {
	Metadata() Metadata
	ParseRaw(input []byte, opts Options) *Result
}

// allSections 是规范结构里全部可解析的 section 名。
var allSections = []string{
	"personalInfo", "experience", "education", "skills", "projects",
	"certifications", "languages", "volunteer", "publications", "awards",
}

func failure(msgs ...string) *Result {
	return &Result{
		Success:  false,
		Errors:   msgs,
		Warnings: []string{},
	}
}

// Parse 是共享包装器：计时、调用 ParseRaw、合并校验结果并写入质量分。
func Parse(p Parser, v *schema.Validator, input []byte, opts Options) *Result {
	start := time.Now()

	result := p.ParseRaw(input, opts)
	if result == nil {
		result = failure("parser returned no result")
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}

	if result.Success && result.Data != nil {
		result.Data.EnsureDefaults()
		validation := v.Validate(result.Data)
		result.Errors = append(result.Errors, validation.Errors...)
		result.Warnings = append(result.Warnings, validation.Warnings...)
		if !validation.Valid {
			result.Success = false
		}
		result.Metadata.DataQuality = v.QualityScore(result.Data)
	}

	result.Metadata.ParserType = p.Metadata().Type
	result.Metadata.ParseTimeMs = time.Since(start).Milliseconds()
	return result
}
