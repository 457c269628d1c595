package domain

import "time"

type Task struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:256;not null" json:"title"`
	Description string       `gorm:"size:4096" json:"description"`
	Status      TaskStatus   `gorm:"size:16;not null;default:TODO" json:"status"`
	Priority    TaskPriority `gorm:"size:16;not null;default:MEDIUM" json:"priority"`
	ProjectID   uint         `gorm:"not null;index" json:"projectId"`
	AssignedTo  *uint        `gorm:"index" json:"assignedTo"`
	CreatedBy   uint         `gorm:"not null" json:"createdBy"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Project  Project `gorm:"foreignKey:ProjectID" json:"-"`
	Assignee *User   `gorm:"foreignKey:AssignedTo" json:"-"`
}

func (Task) TableName() string { return "tasks" }
