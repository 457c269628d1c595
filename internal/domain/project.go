package domain

import "time"

type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:128;not null" json:"name"`
	Description string `gorm:"size:1024" json:"description"`
	CreatedBy   uint   `gorm:"not null;index" json:"createdBy"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Members []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Project) TableName() string { return "projects" }

// ProjectSummary 任务返回里内嵌的项目信息
type ProjectSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{ID: p.ID, Name: p.Name, Description: p.Description}
}

// ProjectMember 一个用户在一个项目里至多一行（唯一索引兜底并发加人）
type ProjectMember struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ProjectID uint        `gorm:"not null;uniqueIndex:idx_project_user" json:"projectId"`
	UserID    uint        `gorm:"not null;uniqueIndex:idx_project_user" json:"userId"`
	Role      ProjectRole `gorm:"size:16;not null" json:"role"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (ProjectMember) TableName() string { return "project_members" }
