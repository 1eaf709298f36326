package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"cvstudio/internal/api/middleware"
	"cvstudio/internal/database"
	"cvstudio/internal/errcode"
	"cvstudio/internal/metrics"
	"cvstudio/internal/parser"
	"cvstudio/internal/render"
	"cvstudio/internal/schema"
	"cvstudio/internal/service"
	"cvstudio/internal/storage"
	"cvstudio/internal/tasks"
	"cvstudio/internal/template"
)

// CVHandler 负责处理与简历记录相关的 API 请求。
type CVHandler struct {
	svc            *service.CVService
	asynqClient    *asynq.Client
	storage        *storage.Client
	clamdEnabled   bool
	clamdAddr      string
	maxImportBytes int64
}

// NewCVHandler 构造 CVHandler。
func NewCVHandler(svc *service.CVService, asynqClient *asynq.Client, storageClient *storage.Client, clamdEnabled bool, clamdAddr string, maxImportBytes int64) *CVHandler {
	return &CVHandler{
		svc:            svc,
		asynqClient:    asynqClient,
		storage:        storageClient,
		clamdEnabled:   clamdEnabled,
		clamdAddr:      clamdAddr,
		maxImportBytes: maxImportBytes,
	}
}

var errInvalidCVID = errors.New("invalid cv id")

type createCVRequest struct {
	Title      string         `json:"title"`
	TemplateID string         `json:"templateId"`
	Record     *schema.Resume `json:"record" binding:"required"`
}

type updateCVRequest struct {
	Title           string         `json:"title"`
	Record          *schema.Resume `json:"record" binding:"required"`
	ExpectedVersion int            `json:"expectedVersion"`
}

type cvListItem struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	TemplateID  string    `json:"templateId"`
	Version     int       `json:"version"`
	IsPublished bool      `json:"isPublished"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type cvResponse struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	TemplateID  string         `json:"templateId"`
	Version     int            `json:"version"`
	IsPublished bool           `json:"isPublished"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
	Record      *schema.Resume `json:"record"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CreateCV 校验并保存一份新的简历记录。
func (h *CVHandler) CreateCV(c *gin.Context) {
	var req createCVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cv, err := h.svc.Create(c.Request.Context(), userID, service.CreateInput{
		Title:      req.Title,
		TemplateID: req.TemplateID,
		Record:     req.Record,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.newCVResponse(cv))
}

// ListCVs 列出用户全部简历记录。
func (h *CVHandler) ListCVs(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cvs, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		Internal(c, "failed to list cvs")
		return
	}

	items := make([]cvListItem, 0, len(cvs))
	for _, cv := range cvs {
		items = append(items, cvListItem{
			ID:          cv.ID,
			Title:       cv.Title,
			TemplateID:  cv.TemplateID,
			Version:     cv.Version,
			IsPublished: cv.IsPublished,
			UpdatedAt:   cv.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetCV 返回指定 ID 的简历记录。
func (h *CVHandler) GetCV(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	cv, err := h.svc.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newCVResponse(cv))
}

// UpdateCV 覆盖记录内容, 版本号单调加一。
func (h *CVHandler) UpdateCV(c *gin.Context) {
	var req updateCVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	cv, err := h.svc.Update(c.Request.Context(), id, userID, service.UpdateInput{
		Title:           req.Title,
		Record:          req.Record,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newCVResponse(cv))
}

// DeleteCV 删除记录并尽力清理已导出的对象。
func (h *CVHandler) DeleteCV(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	ctx := c.Request.Context()
	if err := h.svc.Delete(ctx, id, userID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	if h.storage != nil {
		if err := h.storage.DeletePrefix(ctx, exportPrefix(userID, id)); err != nil {
			middleware.LoggerFromContext(c).Warn("cleanup exported objects failed", "cv_id", id, "error", err)
		}
	}

	c.Status(http.StatusNoContent)
}

type importParsingSummary struct {
	Parser       string   `json:"parser"`
	QualityScore int      `json:"qualityScore"`
	ParseTimeMs  int64    `json:"parseTimeMs"`
	Warnings     []string `json:"warnings"`
}

type importResponse struct {
	CV      cvResponse           `json:"cv"`
	Parsing importParsingSummary `json:"parsing"`
}

// ImportCV 接收 multipart 文件并经解析器注册表导入。
// 格式优先取表单字段, 其次按文件扩展名推断, 都缺失时按 json 处理。
func (h *CVHandler) ImportCV(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if h.maxImportBytes > 0 && file.Size > h.maxImportBytes {
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	if h.clamdEnabled {
		if err := scanUpload(h.clamdAddr, file); err != nil {
			if errors.Is(err, errMaliciousFile) {
				BadRequest(c, "malicious file detected")
				return
			}
			middleware.LoggerFromContext(c).Error("scan upload failed", "error", err)
			Internal(c, "failed to scan file")
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		Internal(c, "failed to read file")
		return
	}

	format := inferImportFormat(c.PostForm("format"), file.Filename)
	out, err := h.svc.ImportFrom(c.Request.Context(), userID, service.ImportInput{
		Data:       data,
		Format:     format,
		ParserType: c.PostForm("parser"),
		SourceName: file.Filename,
		Title:      c.PostForm("title"),
	})
	if err != nil {
		var impErr *service.ImportFailedError
		if errors.As(err, &impErr) {
			metrics.ObserveImport(format, "failure", 0)
			c.JSON(http.StatusBadRequest, gin.H{
				"code":     errcode.FormatError,
				"error":    "import failed",
				"errors":   impErr.Errors,
				"warnings": impErr.Warnings,
			})
			return
		}
		metrics.ObserveImport(format, "failure", 0)
		h.respondServiceError(c, err)
		return
	}

	metrics.ObserveImport(out.Result.Metadata.ParserType, "success", out.Result.Metadata.DataQuality)
	c.JSON(http.StatusCreated, importResponse{
		CV: h.newCVResponse(out.CV),
		Parsing: importParsingSummary{
			Parser:       out.Result.Metadata.ParserType,
			QualityScore: out.Result.Metadata.DataQuality,
			ParseTimeMs:  out.Result.Metadata.ParseTimeMs,
			Warnings:     out.Result.Warnings,
		},
	})
}

// ExportCV 同步导出 json/html/pdf。
func (h *CVHandler) ExportCV(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	format := c.DefaultQuery("format", "pdf")
	start := time.Now()
	export, err := h.svc.ExportAs(c.Request.Context(), id, userID, format, c.Query("template"), c.Query("theme"))
	if err != nil {
		metrics.ObserveRender(format, "failure", time.Since(start).Seconds())
		h.respondServiceError(c, err)
		return
	}
	metrics.ObserveRender(format, "success", time.Since(start).Seconds())

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, export.ContentType, export.Bytes)
}

type exportJobRequest struct {
	Format     string `json:"format"`
	TemplateID string `json:"templateId"`
	Theme      string `json:"theme"`
}

// CreateExportJob 将导出任务入队并立即返回 202。
func (h *CVHandler) CreateExportJob(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	var req exportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Format == "" {
		req.Format = render.FormatPDF
	}
	if req.Format != render.FormatPDF && req.Format != render.FormatHTML {
		BadRequest(c, "unsupported export format")
		return
	}

	if _, err := h.svc.Get(c.Request.Context(), id, userID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	task, err := tasks.NewCVExportTask(tasks.CVExportPayload{
		CVID:          id,
		OwnerID:       userID,
		Format:        req.Format,
		TemplateID:    req.TemplateID,
		Theme:         req.Theme,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "export request accepted",
		"task_id": info.ID,
	})
}

// GetDownloadLink 生成最近一次异步 PDF 导出的预签名下载链接。
func (h *CVHandler) GetDownloadLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	cv, err := h.svc.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	if cv.PDFObjectKey == "" {
		Conflict(c, "pdf not ready")
		return
	}

	filename := "cv-" + strconv.FormatUint(uint64(cv.ID), 10) + ".pdf"
	signedURL, err := h.storage.GenerateDownloadURL(c.Request.Context(), cv.PDFObjectKey, filename, 5*time.Minute)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			Conflict(c, "pdf not ready")
			return
		}
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

// ListExports 列出该简历已生成的导出产物, 附带限时下载链接。
func (h *CVHandler) ListExports(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.svc.Get(ctx, id, userID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	prefix := exportPrefix(userID, id)
	objects, err := h.storage.ListObjects(ctx, prefix, 50)
	if err != nil {
		Internal(c, "failed to list exports")
		return
	}

	items := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		filename := obj.Key[strings.LastIndex(obj.Key, "/")+1:]
		signedURL, err := h.storage.GenerateDownloadURL(ctx, obj.Key, filename, 5*time.Minute)
		if err != nil {
			middleware.LoggerFromContext(c).Warn("sign export url failed", "key", obj.Key, "error", err)
			continue
		}
		items = append(items, gin.H{
			"key":          obj.Key,
			"size":         obj.Size,
			"lastModified": obj.LastModified,
			"url":          signedURL,
		})
	}
	c.JSON(http.StatusOK, items)
}

type changeTemplateRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
}

// ChangeTemplate 切换渲染模板, 不影响版本号。
func (h *CVHandler) ChangeTemplate(c *gin.Context) {
	var req changeTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	if err := h.svc.ChangeTemplate(c.Request.Context(), id, userID, req.TemplateID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	cv, err := h.svc.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newCVResponse(cv))
}

// PublishCV 发布记录并返回公开访问路径。
func (h *CVHandler) PublishCV(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	out, err := h.svc.Publish(c.Request.Context(), id, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":       out.Token,
		"publicPath":  out.PublicPath,
		"publishedAt": out.PublishedAt,
	})
}

// GetPublicCV 匿名读取已发布的记录。
func (h *CVHandler) GetPublicCV(c *gin.Context) {
	token := c.Param("token")
	if strings.TrimSpace(token) == "" {
		NotFound(c, "cv not found")
		return
	}

	cv, err := h.svc.GetPublic(c.Request.Context(), token)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	record, err := h.svc.Record(cv)
	if err != nil {
		Internal(c, "failed to decode cv")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title":       cv.Title,
		"templateId":  cv.TemplateID,
		"publishedAt": cv.PublishedAt,
		"record":      record,
	})
}

// ListVersions 返回历史内容快照。
func (h *CVHandler) ListVersions(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parseCVID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	versions, err := h.svc.Versions(c.Request.Context(), id, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(versions))
	for _, v := range versions {
		items = append(items, gin.H{
			"version":   v.Version,
			"createdAt": v.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}

// GetStats 返回用户名下的简历统计。
func (h *CVHandler) GetStats(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		Internal(c, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CVHandler) newCVResponse(cv *database.CV) cvResponse {
	record, err := h.svc.Record(cv)
	if err != nil {
		record = &schema.Resume{}
		record.EnsureDefaults()
	}
	return cvResponse{
		ID:          cv.ID,
		Title:       cv.Title,
		TemplateID:  cv.TemplateID,
		Version:     cv.Version,
		IsPublished: cv.IsPublished,
		PublishedAt: cv.PublishedAt,
		Record:      record,
		CreatedAt:   cv.CreatedAt,
		UpdatedAt:   cv.UpdatedAt,
	}
}

// respondServiceError 把服务层错误折叠成统一的 HTTP 响应。
func (h *CVHandler) respondServiceError(c *gin.Context, err error) {
	var vErr *service.ValidationFailedError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":   errcode.ValidationError,
			"error":  "validation failed",
			"errors": vErr.Errors,
		})
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "cv not found")
	case errors.Is(err, service.ErrVersionConflict):
		ErrorCode(c, http.StatusConflict, errcode.VersionConflict, "cv was modified concurrently")
	case errors.Is(err, template.ErrTemplateNotFound):
		NotFound(c, "template not found")
	case errors.Is(err, parser.ErrUnsupportedFormat), errors.Is(err, parser.ErrParserNotFound):
		ErrorCode(c, http.StatusBadRequest, errcode.FormatError, err.Error())
	case errors.Is(err, render.ErrRenderTimeout):
		ErrorCode(c, http.StatusGatewayTimeout, errcode.RenderTimeout, "render timed out")
	default:
		middleware.LoggerFromContext(c).Error("request failed", "error", err)
		Internal(c, "internal error")
	}
}

// inferImportFormat 解析导入格式: 显式字段 > 文件扩展名 > json。
func inferImportFormat(explicit, filename string) string {
	if f := strings.ToLower(strings.TrimSpace(explicit)); f != "" {
		return f
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json"
	case ".yaml":
		return "yaml"
	case ".yml":
		return "yml"
	case ".csv":
		return "csv"
	}
	return "json"
}

// exportPrefix 是导出产物在对象存储中的层级: exports/{owner}/{cv}/。
func exportPrefix(ownerID, cvID uint) string {
	return "exports/" + strconv.FormatUint(uint64(ownerID), 10) + "/" + strconv.FormatUint(uint64(cvID), 10) + "/"
}

func parseCVID(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidCVID
	}
	return uint(id), nil
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
