package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeCVExport = "cv:export"
)

// CVExportPayload 描述一次异步导出所需的最小信息。
// Format 为 pdf 或 html, TemplateID/Theme 为空时使用记录自身的设置。
type CVExportPayload struct {
	CVID          uint   `json:"cv_id"`
	OwnerID       uint   `json:"owner_id"`
	Format        string `json:"format"`
	TemplateID    string `json:"template_id,omitempty"`
	Theme         string `json:"theme,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// NewCVExportTask 构造一个新的简历导出任务。
func NewCVExportTask(p CVExportPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCVExport, payload), nil
}
