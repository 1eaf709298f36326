package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrVersionConflict 表示乐观锁更新时版本号已被其他写入抢先递增。
var ErrVersionConflict = errors.New("cv version conflict")

// OwnerStats 单个用户名下的简历统计。
// RecentActivity 统计最近 30 天内有过更新的简历数。
type OwnerStats struct {
	TotalCVs       int64 `json:"totalCvs"`
	PublishedCVs   int64 `json:"publishedCvs"`
	RecentActivity int64 `json:"recentActivity"`
	Imports        int64 `json:"imports"`
}

// recentActivityWindow 最近活跃的统计窗口。
const recentActivityWindow = 30 * 24 * time.Hour

// CVRepository 封装针对 CV 及其附属表的全部持久化操作。
type CVRepository struct {
	db *gorm.DB
}

func NewCVRepository(db *gorm.DB) *CVRepository {
	return &CVRepository{db: db}
}

func (r *CVRepository) Create(ctx context.Context, cv *CV) error {
	return r.db.WithContext(ctx).Create(cv).Error
}

func (r *CVRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*CV, error) {
	var cv CV
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&cv).Error
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *CVRepository) ListByOwner(ctx context.Context, ownerID uint) ([]CV, error) {
	var cvs []CV
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&cvs).Error
	return cvs, err
}

// UpdateRecord 以 expectedVersion 为前提条件原子地写入新内容并将版本号加一。
// 条件不满足时区分两种失败: 记录不存在返回 gorm.ErrRecordNotFound,
// 版本号已前移返回 ErrVersionConflict。
func (r *CVRepository) UpdateRecord(ctx context.Context, id, ownerID uint, expectedVersion int, record datatypes.JSON, title string) (*CV, error) {
	updates := map[string]any{
		"record":  record,
		"version": gorm.Expr("version + 1"),
	}
	if title != "" {
		updates["title"] = title
	}
	res := r.db.WithContext(ctx).Model(&CV{}).
		Where("id = ? AND owner_id = ? AND version = ?", id, ownerID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByIDAndOwner(ctx, id, ownerID); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return r.FindByIDAndOwner(ctx, id, ownerID)
}

// UpdateTemplate 切换模板, 刻意不触碰版本号。
func (r *CVRepository) UpdateTemplate(ctx context.Context, id, ownerID uint, templateID string) error {
	res := r.db.WithContext(ctx).Model(&CV{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("template_id", templateID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CVRepository) Publish(ctx context.Context, id, ownerID uint, token string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&CV{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]any{
			"is_published": true,
			"public_token": token,
			"published_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindPublished 仅返回已发布的记录, 未发布或 token 不存在一律视为未找到。
func (r *CVRepository) FindPublished(ctx context.Context, token string) (*CV, error) {
	var cv CV
	err := r.db.WithContext(ctx).
		Where("public_token = ? AND is_published = ?", token, true).
		First(&cv).Error
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// Delete 物理删除记录, 公开 token 随之立即失效。
func (r *CVRepository) Delete(ctx context.Context, id, ownerID uint) error {
	res := r.db.WithContext(ctx).Unscoped().
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&CV{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CVRepository) SaveVersion(ctx context.Context, v *CVVersion) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *CVRepository) ListVersions(ctx context.Context, id, ownerID uint) ([]CVVersion, error) {
	if _, err := r.FindByIDAndOwner(ctx, id, ownerID); err != nil {
		return nil, err
	}
	var versions []CVVersion
	err := r.db.WithContext(ctx).
		Where("cv_id = ?", id).
		Order("version DESC").
		Find(&versions).Error
	return versions, err
}

func (r *CVRepository) SaveImportRecord(ctx context.Context, rec *ImportRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *CVRepository) Stats(ctx context.Context, ownerID uint) (*OwnerStats, error) {
	var stats OwnerStats
	tx := r.db.WithContext(ctx)
	if err := tx.Model(&CV{}).Where("owner_id = ?", ownerID).Count(&stats.TotalCVs).Error; err != nil {
		return nil, fmt.Errorf("count cvs: %w", err)
	}
	if err := tx.Model(&CV{}).Where("owner_id = ? AND is_published = ?", ownerID, true).Count(&stats.PublishedCVs).Error; err != nil {
		return nil, fmt.Errorf("count published: %w", err)
	}
	since := time.Now().Add(-recentActivityWindow)
	if err := tx.Model(&CV{}).Where("owner_id = ? AND updated_at > ?", ownerID, since).Count(&stats.RecentActivity).Error; err != nil {
		return nil, fmt.Errorf("count recent activity: %w", err)
	}
	if err := tx.Model(&ImportRecord{}).Where("owner_id = ?", ownerID).Count(&stats.Imports).Error; err != nil {
		return nil, fmt.Errorf("count imports: %w", err)
	}
	return &stats, nil
}
