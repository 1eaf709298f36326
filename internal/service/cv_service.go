// Package service 实现简历记录的全生命周期:
// 创建/更新/删除、外部格式导入、多格式导出、模板切换与公开发布。
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cvstudio/internal/database"
	"cvstudio/internal/parser"
	"cvstudio/internal/render"
	"cvstudio/internal/schema"
	"cvstudio/internal/template"
)

// Repository 是服务层需要的持久化能力, 由 database.CVRepository 满足。
type Repository interface {
	Create(ctx context.Context, cv *database.CV) error
	FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*database.CV, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]database.CV, error)
	UpdateRecord(ctx context.Context, id, ownerID uint, expectedVersion int, record datatypes.JSON, title string) (*database.CV, error)
	UpdateTemplate(ctx context.Context, id, ownerID uint, templateID string) error
	Publish(ctx context.Context, id, ownerID uint, token string, at time.Time) error
	FindPublished(ctx context.Context, token string) (*database.CV, error)
	Delete(ctx context.Context, id, ownerID uint) error
	SaveVersion(ctx context.Context, v *database.CVVersion) error
	ListVersions(ctx context.Context, id, ownerID uint) ([]database.CVVersion, error)
	SaveImportRecord(ctx context.Context, rec *database.ImportRecord) error
	Stats(ctx context.Context, ownerID uint) (*database.OwnerStats, error)
}

// CVService 编排校验器、解析器注册表、模板注册表与渲染管线。
type CVService struct {
	repo      Repository
	validator *schema.Validator
	parsers   *parser.Registry
	templates *template.Registry
	pipeline  *render.Pipeline
	logger    *slog.Logger
}

func NewCVService(repo Repository, validator *schema.Validator, parsers *parser.Registry, templates *template.Registry, pipeline *render.Pipeline, logger *slog.Logger) *CVService {
	return &CVService{
		repo:      repo,
		validator: validator,
		parsers:   parsers,
		templates: templates,
		pipeline:  pipeline,
		logger:    logger,
	}
}

// CreateInput 新建简历的入参。TemplateID 为空时落到注册表默认模板。
type CreateInput struct {
	Title      string
	TemplateID string
	Record     *schema.Resume
}

// UpdateInput 内容更新入参。ExpectedVersion 为 0 时以当前存储版本为前提,
// 显式给出时由调用方承担乐观锁职责。
type UpdateInput struct {
	Title           string
	Record          *schema.Resume
	ExpectedVersion int
}

// ImportInput 一次外部格式导入。Format/ParserType 至少给出其一,
// 均为空时按 json 处理。
type ImportInput struct {
	Data       []byte
	Format     string
	ParserType string
	SourceName string
	Title      string
}

// ImportOutcome 返回新建的记录与解析层的完整结果(含警告与质量分)。
type ImportOutcome struct {
	CV     *database.CV
	Result *parser.Result
}

// Export 一次同步导出的产物。
type Export struct {
	Bytes       []byte
	ContentType string
	Filename    string
}

// PublishOutcome 发布后的公开访问信息。
type PublishOutcome struct {
	Token       string
	PublicPath  string
	PublishedAt time.Time
}

func (s *CVService) Create(ctx context.Context, ownerID uint, in CreateInput) (*database.CV, error) {
	if in.Record == nil {
		return nil, &ValidationFailedError{Errors: []string{"record: resume content is required"}}
	}
	in.Record.EnsureDefaults()
	if vr := s.validator.Validate(in.Record); !vr.Valid {
		return nil, &ValidationFailedError{Errors: vr.Errors}
	}

	templateID, err := s.resolveTemplate(in.TemplateID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(in.Record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	title := in.Title
	if title == "" {
		title = in.Record.PersonalInfo.FullName
	}

	cv := &database.CV{
		OwnerID:    ownerID,
		Title:      title,
		Record:     datatypes.JSON(raw),
		TemplateID: templateID,
		Version:    1,
	}
	if err := s.repo.Create(ctx, cv); err != nil {
		return nil, fmt.Errorf("create cv: %w", err)
	}
	if err := s.snapshot(ctx, cv); err != nil {
		s.logger.Warn("snapshot initial version failed", "cv_id", cv.ID, "error", err)
	}

	s.logger.Info("cv created", "cv_id", cv.ID, "owner_id", ownerID, "template", templateID)
	return cv, nil
}

func (s *CVService) Get(ctx context.Context, id, ownerID uint) (*database.CV, error) {
	cv, err := s.repo.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, s.asNotFound(err)
	}
	return cv, nil
}

func (s *CVService) List(ctx context.Context, ownerID uint) ([]database.CV, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Update 写入新内容并让版本号单调加一。并发写入通过存储层的
// 条件更新裁决, 输掉的一方得到 ErrVersionConflict。
func (s *CVService) Update(ctx context.Context, id, ownerID uint, in UpdateInput) (*database.CV, error) {
	if in.Record == nil {
		return nil, &ValidationFailedError{Errors: []string{"record: resume content is required"}}
	}
	in.Record.EnsureDefaults()
	if vr := s.validator.Validate(in.Record); !vr.Valid {
		return nil, &ValidationFailedError{Errors: vr.Errors}
	}

	expected := in.ExpectedVersion
	if expected == 0 {
		current, err := s.repo.FindByIDAndOwner(ctx, id, ownerID)
		if err != nil {
			return nil, s.asNotFound(err)
		}
		expected = current.Version
	}

	raw, err := json.Marshal(in.Record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	cv, err := s.repo.UpdateRecord(ctx, id, ownerID, expected, datatypes.JSON(raw), in.Title)
	if err != nil {
		if errors.Is(err, database.ErrVersionConflict) {
			return nil, ErrVersionConflict
		}
		return nil, s.asNotFound(err)
	}
	if err := s.snapshot(ctx, cv); err != nil {
		s.logger.Warn("snapshot version failed", "cv_id", cv.ID, "version", cv.Version, "error", err)
	}

	s.logger.Info("cv updated", "cv_id", cv.ID, "version", cv.Version)
	return cv, nil
}

func (s *CVService) Delete(ctx context.Context, id, ownerID uint) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return s.asNotFound(err)
	}
	s.logger.Info("cv deleted", "cv_id", id, "owner_id", ownerID)
	return nil
}

// ImportFrom 通过解析器注册表把外部文档转成一条新记录,
// 并留下带质量分与警告的导入档案。解析失败不落库。
func (s *CVService) ImportFrom(ctx context.Context, ownerID uint, in ImportInput) (*ImportOutcome, error) {
	format := in.Format
	if format == "" && in.ParserType == "" {
		format = "json"
	}

	res, err := s.parsers.Parse(in.Data, format, in.ParserType, parser.Options{SourceName: in.SourceName})
	if err != nil {
		return nil, err
	}
	if !res.Success || res.Data == nil {
		return nil, &ImportFailedError{Errors: res.Errors, Warnings: res.Warnings}
	}

	title := in.Title
	if title == "" {
		title = res.Data.PersonalInfo.FullName
	}
	cv, err := s.Create(ctx, ownerID, CreateInput{Title: title, Record: res.Data})
	if err != nil {
		return nil, err
	}

	warnings, _ := json.Marshal(res.Warnings)
	rec := &database.ImportRecord{
		CVID:         cv.ID,
		OwnerID:      ownerID,
		SourceName:   in.SourceName,
		Format:       format,
		ParserType:   res.Metadata.ParserType,
		QualityScore: res.Metadata.DataQuality,
		Warnings:     datatypes.JSON(warnings),
	}
	if err := s.repo.SaveImportRecord(ctx, rec); err != nil {
		s.logger.Warn("save import record failed", "cv_id", cv.ID, "error", err)
	}

	s.logger.Info("cv imported",
		"cv_id", cv.ID, "parser", res.Metadata.ParserType,
		"quality", res.Metadata.DataQuality, "warnings", len(res.Warnings))
	return &ImportOutcome{CV: cv, Result: res}, nil
}

// ExportAs 同步导出。json 直接回放存储的规范记录,
// html/pdf 经渲染管线生成。templateID 为空时使用记录自身的模板。
func (s *CVService) ExportAs(ctx context.Context, id, ownerID uint, format, templateID, theme string) (*Export, error) {
	cv, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if templateID == "" {
		templateID = cv.TemplateID
	}

	switch format {
	case "json":
		return &Export{
			Bytes:       append([]byte(nil), cv.Record...),
			ContentType: "application/json",
			Filename:    exportFilename(cv, "json"),
		}, nil
	case render.FormatHTML:
		resume, err := decodeRecord(cv)
		if err != nil {
			return nil, err
		}
		html, err := s.pipeline.RenderHTML(templateID, resume, template.RenderOptions{Theme: theme})
		if err != nil {
			return nil, err
		}
		return &Export{
			Bytes:       []byte(html),
			ContentType: "text/html; charset=utf-8",
			Filename:    exportFilename(cv, "html"),
		}, nil
	case render.FormatPDF:
		resume, err := decodeRecord(cv)
		if err != nil {
			return nil, err
		}
		pdf, err := s.pipeline.RenderPDF(ctx, templateID, resume, template.RenderOptions{Theme: theme})
		if err != nil {
			return nil, err
		}
		return &Export{
			Bytes:       pdf,
			ContentType: "application/pdf",
			Filename:    exportFilename(cv, "pdf"),
		}, nil
	default:
		return nil, fmt.Errorf("%w: export format %q", parser.ErrUnsupportedFormat, format)
	}
}

// ChangeTemplate 切换渲染模板。这是展示层变更, 不触发版本号递增。
func (s *CVService) ChangeTemplate(ctx context.Context, id, ownerID uint, templateID string) error {
	if !s.templates.Has(templateID) {
		return fmt.Errorf("%w: %q", template.ErrTemplateNotFound, templateID)
	}
	if err := s.repo.UpdateTemplate(ctx, id, ownerID, templateID); err != nil {
		return s.asNotFound(err)
	}
	s.logger.Info("cv template changed", "cv_id", id, "template", templateID)
	return nil
}

// Publish 生成不可猜测的公开 token 并标记发布。重复发布会轮换 token。
func (s *CVService) Publish(ctx context.Context, id, ownerID uint) (*PublishOutcome, error) {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate public token: %w", err)
	}
	token := hex.EncodeToString(buf)
	now := time.Now().UTC()

	if err := s.repo.Publish(ctx, id, ownerID, token, now); err != nil {
		return nil, s.asNotFound(err)
	}

	s.logger.Info("cv published", "cv_id", id)
	return &PublishOutcome{
		Token:       token,
		PublicPath:  "/v1/public/" + token,
		PublishedAt: now,
	}, nil
}

// GetPublic 匿名读取。仅已发布记录可见, 其余一律 ErrNotFound。
func (s *CVService) GetPublic(ctx context.Context, token string) (*database.CV, error) {
	cv, err := s.repo.FindPublished(ctx, token)
	if err != nil {
		return nil, s.asNotFound(err)
	}
	return cv, nil
}

func (s *CVService) Versions(ctx context.Context, id, ownerID uint) ([]database.CVVersion, error) {
	versions, err := s.repo.ListVersions(ctx, id, ownerID)
	if err != nil {
		return nil, s.asNotFound(err)
	}
	return versions, nil
}

func (s *CVService) Stats(ctx context.Context, ownerID uint) (*database.OwnerStats, error) {
	return s.repo.Stats(ctx, ownerID)
}

// Record 把存储的 JSON 还原为规范结构, 供渲染与公开视图使用。
func (s *CVService) Record(cv *database.CV) (*schema.Resume, error) {
	return decodeRecord(cv)
}

func (s *CVService) resolveTemplate(id string) (string, error) {
	if id == "" {
		def, err := s.templates.Default()
		if err != nil {
			return "", err
		}
		return def.Metadata().ID, nil
	}
	if !s.templates.Has(id) {
		return "", fmt.Errorf("%w: %q", template.ErrTemplateNotFound, id)
	}
	return id, nil
}

func (s *CVService) snapshot(ctx context.Context, cv *database.CV) error {
	return s.repo.SaveVersion(ctx, &database.CVVersion{
		CVID:    cv.ID,
		Version: cv.Version,
		Record:  append(datatypes.JSON(nil), cv.Record...),
	})
}

// asNotFound 把存储层的"记录不存在"折叠成统一的 ErrNotFound。
func (s *CVService) asNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func decodeRecord(cv *database.CV) (*schema.Resume, error) {
	var resume schema.Resume
	if err := json.Unmarshal(cv.Record, &resume); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	resume.EnsureDefaults()
	return &resume, nil
}

func exportFilename(cv *database.CV, ext string) string {
	return fmt.Sprintf("cv-%d-v%d.%s", cv.ID, cv.Version, ext)
}
