package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cvstudio/internal/database"
	"cvstudio/internal/errcode"
	"cvstudio/internal/render"
	"cvstudio/internal/schema"
	"cvstudio/internal/storage"
	"cvstudio/internal/tasks"
	"cvstudio/internal/template"
)

// ExportTaskHandler 负责消费异步导出任务:
// 加载记录、渲染、落盘到对象存储, 并通过 Redis 通知前端。
type ExportTaskHandler struct {
	db          *gorm.DB
	pipeline    *render.Pipeline
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	pipeline *render.Pipeline,
	storageClient *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:          db,
		pipeline:    pipeline,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.CVExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("cv_id", int(payload.CVID)),
		slog.String("format", payload.Format),
	)
	log.Info("starting cv export task")

	var cv database.CV
	if err := h.db.WithContext(ctx).First(&cv, payload.CVID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("cv not found, skipping task")
			return nil
		}
		log.Error("query cv failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		code := errcode.RenderFailure
		if errors.Is(retErr, render.ErrRenderTimeout) {
			code = errcode.RenderTimeout
		}
		notify := ExportNotifyMessage{
			Status:        "error",
			CVID:          cv.ID,
			Format:        payload.Format,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     code,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishExportNotify(ctx, cv.OwnerID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	var resume schema.Resume
	if err := json.Unmarshal(cv.Record, &resume); err != nil {
		log.Error("decode cv record failed", slog.Any("error", err))
		return err
	}
	resume.EnsureDefaults()

	templateID := payload.TemplateID
	if templateID == "" {
		templateID = cv.TemplateID
	}
	opts := template.RenderOptions{Theme: payload.Theme}

	var (
		data        []byte
		contentType string
		ext         string
	)
	switch payload.Format {
	case render.FormatHTML:
		html, err := h.pipeline.RenderHTML(templateID, &resume, opts)
		if err != nil {
			log.Error("render html failed", slog.Any("error", err))
			return err
		}
		data, contentType, ext = []byte(html), "text/html; charset=utf-8", "html"
	default:
		pdf, err := h.pipeline.RenderPDF(ctx, templateID, &resume, opts)
		if err != nil {
			log.Error("render pdf failed", slog.Any("error", err))
			return err
		}
		data, contentType, ext = pdf, "application/pdf", "pdf"
	}

	objectName := fmt.Sprintf("exports/%d/%d/%s.%s", cv.OwnerID, cv.ID, uuid.NewString(), ext)
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		log.Error("upload export to minio failed", slog.Any("error", err))
		return err
	}

	if ext == "pdf" {
		if err := h.db.WithContext(ctx).Model(&cv).
			Update("pdf_object_key", objectName).Error; err != nil {
			log.Error("update cv object key failed", slog.Any("error", err))
			return err
		}
	}

	notify := ExportNotifyMessage{
		Status:        "completed",
		CVID:          cv.ID,
		Format:        payload.Format,
		ObjectKey:     objectName,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishExportNotify(ctx, cv.OwnerID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("cv export task completed")
	return nil
}

func (h *ExportTaskHandler) publishExportNotify(ctx context.Context, ownerID uint, notify ExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", ownerID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
