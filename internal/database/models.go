package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 简历的所有者账户。
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:64"`
	PasswordHash string `gorm:"size:255"`
	CVs          []CV   `gorm:"foreignKey:OwnerID"`
}

// CV 规范化简历记录本体。Record 保存规范 Schema 的 JSON,
// Version 在每次内容更新时加一, 模板切换不会改变版本号。
type CV struct {
	gorm.Model
	OwnerID      uint   `gorm:"index;not null"`
	Title        string `gorm:"size:255"`
	Record       datatypes.JSON
	TemplateID   string  `gorm:"size:64"`
	Version      int     `gorm:"not null;default:1"`
	IsPublished  bool    `gorm:"default:false"`
	PublicToken  *string `gorm:"uniqueIndex;size:128"`
	PublishedAt  *time.Time
	PDFObjectKey string `gorm:"size:512"` // 异步导出产物在对象存储中的 key
}

// CVVersion 内容更新时落下的快照, 供历史回看。
type CVVersion struct {
	gorm.Model
	CVID    uint `gorm:"index;not null"`
	Version int  `gorm:"not null"`
	Record  datatypes.JSON
}

// ImportRecord 记录一次导入的来源信息。
type ImportRecord struct {
	gorm.Model
	CVID         uint   `gorm:"index"`
	OwnerID      uint   `gorm:"index;not null"`
	SourceName   string `gorm:"size:255"`
	Format       string `gorm:"size:16"`
	ParserType   string `gorm:"size:16"`
	QualityScore int
	Warnings     datatypes.JSON
}
