package repo

import (
	"gorm.io/gorm"

	"taskhub/internal/authz"
	"taskhub/internal/domain"
)

type DashboardStats struct {
	TotalProjects  int64 `json:"totalProjects"`
	TotalTasks     int64 `json:"totalTasks"`
	CompletedTasks int64 `json:"completedTasks"`
	PendingTasks   int64 `json:"pendingTasks"`
}

// Stats 仪表盘计数，可见范围与项目/任务列表一致
func Stats(tx *gorm.DB, p authz.Principal) (*DashboardStats, error) {
	var s DashboardStats

	projects := tx.Model(&domain.Project{})
	tasks := tx.Model(&domain.Task{})
	done := tx.Model(&domain.Task{}).Where("status = ?", domain.StatusDone)

	if !p.IsAdmin() {
		memberProjects := tx.Session(&gorm.Session{NewDB: true}).
			Model(&domain.ProjectMember{}).
			Select("project_id").
			Where("user_id = ?", p.UserID)
		projects = projects.Where("id IN (?)", memberProjects)
		tasks = tasks.Where("project_id IN (?)", memberProjects)
		done = done.Where("project_id IN (?)", memberProjects)
	}

	if err := projects.Count(&s.TotalProjects).Error; err != nil {
		return nil, err
	}
	if err := tasks.Count(&s.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := done.Count(&s.CompletedTasks).Error; err != nil {
		return nil, err
	}
	s.PendingTasks = s.TotalTasks - s.CompletedTasks
	return &s, nil
}
