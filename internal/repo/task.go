package repo

import (
	"errors"

	"gorm.io/gorm"

	"taskhub/internal/domain"
)

// TaskFilter 任务列表筛选。MemberUserID 非空时只返回该用户
// 所在项目的任务（非管理员的可见范围）。
type TaskFilter struct {
	ProjectID    *uint
	AssignedTo   *uint
	Status       domain.TaskStatus
	Priority     domain.TaskPriority
	Limit        int
	MemberUserID *uint
}

// 未完成在前，紧急在前，最近更新在前（与看板展示顺序一致）
const taskOrder = "CASE WHEN status = 'DONE' THEN 1 ELSE 0 END, " +
	"CASE priority WHEN 'URGENT' THEN 0 WHEN 'HIGH' THEN 1 WHEN 'MEDIUM' THEN 2 ELSE 3 END, " +
	"updated_at DESC"

func ListTasks(tx *gorm.DB, f TaskFilter) ([]domain.Task, error) {
	q := tx.Model(&domain.Task{}).
		Preload("Project").
		Preload("Assignee").
		Order(taskOrder)

	if f.MemberUserID != nil {
		sub := tx.Session(&gorm.Session{NewDB: true}).
			Model(&domain.ProjectMember{}).
			Select("project_id").
			Where("user_id = ?", *f.MemberUserID)
		q = q.Where("project_id IN (?)", sub)
	}
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.AssignedTo != nil {
		q = q.Where("assigned_to = ?", *f.AssignedTo)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []domain.Task
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func FindTask(tx *gorm.DB, id uint) (*domain.Task, error) {
	var t domain.Task
	err := tx.Preload("Project").Preload("Assignee").First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
