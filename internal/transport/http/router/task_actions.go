package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/domain"
	"taskhub/internal/repo"
	httpez "taskhub/internal/transport/http/ez"
	mdw "taskhub/internal/transport/http/middleware"
)

type tasksModule struct{ db *gorm.DB }

func (m *tasksModule) Priority() int { return 40 }

// taskOut 任务 + 内嵌的项目/指派人摘要
type taskOut struct {
	ID          uint                   `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      domain.TaskStatus      `json:"status"`
	Priority    domain.TaskPriority    `json:"priority"`
	ProjectID   uint                   `json:"projectId"`
	AssignedTo  *uint                  `json:"assignedTo"`
	CreatedBy   uint                   `json:"createdBy"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	Project     *domain.ProjectSummary `json:"project"`
	Assignee    *domain.UserSummary    `json:"assignee"`
}

func toTaskOut(t *domain.Task) taskOut {
	out := taskOut{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		ProjectID:   t.ProjectID,
		AssignedTo:  t.AssignedTo,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Project.ID != 0 {
		s := t.Project.Summary()
		out.Project = &s
	}
	if t.Assignee != nil {
		s := t.Assignee.Summary()
		out.Assignee = &s
	}
	return out
}

func (m *tasksModule) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)
	db := m.db

	// 列表：非管理员只看得到自己所在项目的任务
	type listQ struct {
		ProjectID  *uint  `form:"projectId"`
		AssignedTo *uint  `form:"assignedTo"`
		Status     string `form:"status"`
		Priority   string `form:"priority"`
		Limit      int    `form:"limit"`
	}
	httpez.RegisterAction[listQ, []taskOut](ez, db, httpez.Action[listQ, []taskOut]{
		Method: http.MethodGet,
		Path:   "/tasks",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) ([]taskOut, error) {
			p := mdw.CurrentPrincipal(c)

			f := repo.TaskFilter{
				ProjectID:  in.ProjectID,
				AssignedTo: in.AssignedTo,
				Limit:      in.Limit,
			}
			if in.Status != "" {
				st := domain.TaskStatus(in.Status)
				if !st.Valid() {
					return nil, apperr.Validation("status", "unknown status")
				}
				f.Status = st
			}
			if in.Priority != "" {
				pr := domain.TaskPriority(in.Priority)
				if !pr.Valid() {
					return nil, apperr.Validation("priority", "unknown priority")
				}
				f.Priority = pr
			}
			if !p.IsAdmin() {
				uid := p.UserID
				f.MemberUserID = &uid
			}

			ts, err := repo.ListTasks(tx, f)
			if err != nil {
				return nil, apperr.Internal("list tasks", err)
			}
			out := make([]taskOut, 0, len(ts))
			for i := range ts {
				out = append(out, toTaskOut(&ts[i]))
			}
			return out, nil
		},
	})

	// 创建：目标项目的成员或管理员；指派对象必须是该项目成员
	type createIn struct {
		Title       string `json:"title"       binding:"required,max=256"`
		Description string `json:"description" binding:"required,max=4096"`
		Status      string `json:"status"      binding:"omitempty"`
		Priority    string `json:"priority"    binding:"omitempty"`
		ProjectID   uint   `json:"projectId"   binding:"required"`
		AssignedTo  *uint  `json:"assignedTo"`
	}
	httpez.RegisterAction[createIn, taskOut](ez, db, httpez.Action[createIn, taskOut]{
		Method: http.MethodPost,
		Path:   "/tasks",
		Binder: httpez.BindJSON,
		Auth:   true,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *createIn) (taskOut, error) {
			p := mdw.CurrentPrincipal(c)

			status := domain.StatusTodo
			if in.Status != "" {
				status = domain.TaskStatus(in.Status)
				if !status.Valid() {
					return taskOut{}, apperr.Validation("status", "unknown status")
				}
			}
			priority := domain.PriorityMedium
			if in.Priority != "" {
				priority = domain.TaskPriority(in.Priority)
				if !priority.Valid() {
					return taskOut{}, apperr.Validation("priority", "unknown priority")
				}
			}

			prj, err := repo.FindProject(tx, in.ProjectID)
			if err != nil {
				return taskOut{}, apperr.Internal("lookup project", err)
			}
			if prj == nil {
				return taskOut{}, apperr.NotFound("project")
			}
			role, err := repo.MembershipRole(tx, prj.ID, p.UserID)
			if err != nil {
				return taskOut{}, apperr.Internal("lookup membership", err)
			}
			if err := authz.Require(p, authz.CreateTask, authz.Facts{MemberRole: role}); err != nil {
				return taskOut{}, err
			}

			if in.AssignedTo != nil {
				ok, err := repo.IsMember(tx, prj.ID, *in.AssignedTo)
				if err != nil {
					return taskOut{}, apperr.Internal("lookup assignee membership", err)
				}
				if err := authz.CheckAssigneeMembership(ok); err != nil {
					return taskOut{}, err
				}
			}

			t := domain.Task{
				Title:       strings.TrimSpace(in.Title),
				Description: in.Description,
				Status:      status,
				Priority:    priority,
				ProjectID:   prj.ID,
				AssignedTo:  in.AssignedTo,
				CreatedBy:   p.UserID,
			}
			if err := tx.Create(&t).Error; err != nil {
				return taskOut{}, apperr.Internal("create task", err)
			}
			created, err := repo.FindTask(tx, t.ID)
			if err != nil || created == nil {
				return taskOut{}, apperr.Internal("reload task", err)
			}
			return toTaskOut(created), nil
		},
	})

	// 详情
	httpez.RegisterAction[struct{}, taskOut](ez, db, httpez.Action[struct{}, taskOut]{
		Method: http.MethodGet,
		Path:   "/tasks/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (taskOut, error) {
			t, _, err := loadTaskWithRole(c, tx, authz.ViewTask)
			if err != nil {
				return taskOut{}, err
			}
			return toTaskOut(t), nil
		},
	})

	// 更新（部分字段）：按当前项目判权限；换项目还要对目标项目有权限；
	// 最终指派对象必须是最终所属项目的成员
	type updateIn struct {
		Title       httpez.Optional[string] `json:"title"`
		Description httpez.Optional[string] `json:"description"`
		Status      httpez.Optional[string] `json:"status"`
		Priority    httpez.Optional[string] `json:"priority"`
		ProjectID   httpez.Optional[uint]   `json:"projectId"`
		AssignedTo  httpez.Optional[*uint]  `json:"assignedTo"`
	}
	httpez.RegisterAction[updateIn, taskOut](ez, db, httpez.Action[updateIn, taskOut]{
		Method: http.MethodPut,
		Path:   "/tasks/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *updateIn) (taskOut, error) {
			p := mdw.CurrentPrincipal(c)
			t, curRole, err := loadTaskNoAuthz(c, tx)
			if err != nil {
				return taskOut{}, err
			}

			updates := map[string]any{}
			if in.Title.Set {
				title := strings.TrimSpace(in.Title.Value)
				if title == "" {
					return taskOut{}, apperr.Validation("title", "must not be empty")
				}
				updates["title"] = title
			}
			if in.Description.Set {
				updates["description"] = in.Description.Value
			}
			if in.Status.Set {
				st := domain.TaskStatus(in.Status.Value)
				if !st.Valid() {
					return taskOut{}, apperr.Validation("status", "unknown status")
				}
				updates["status"] = st
			}
			if in.Priority.Set {
				pr := domain.TaskPriority(in.Priority.Value)
				if !pr.Valid() {
					return taskOut{}, apperr.Validation("priority", "unknown priority")
				}
				updates["priority"] = pr
			}

			// 换项目：目标项目也要有权限
			targetProject := t.ProjectID
			facts := authz.Facts{MemberRole: curRole}
			if in.ProjectID.Set && in.ProjectID.Value != t.ProjectID {
				dest, err := repo.FindProject(tx, in.ProjectID.Value)
				if err != nil {
					return taskOut{}, apperr.Internal("lookup project", err)
				}
				if dest == nil {
					return taskOut{}, apperr.NotFound("project")
				}
				destRole, err := repo.MembershipRole(tx, dest.ID, p.UserID)
				if err != nil {
					return taskOut{}, apperr.Internal("lookup membership", err)
				}
				facts.MoveProject = true
				facts.DestMemberRole = destRole
				targetProject = dest.ID
				updates["project_id"] = dest.ID
			}
			if err := authz.Require(p, authz.UpdateTask, facts); err != nil {
				return taskOut{}, err
			}

			// 指派检查按"最终"的项目与指派对象
			assignee := t.AssignedTo
			if in.AssignedTo.Set {
				assignee = in.AssignedTo.Value
				updates["assigned_to"] = in.AssignedTo.Value
			}
			if assignee != nil && (in.AssignedTo.Set || targetProject != t.ProjectID) {
				ok, err := repo.IsMember(tx, targetProject, *assignee)
				if err != nil {
					return taskOut{}, apperr.Internal("lookup assignee membership", err)
				}
				if err := authz.CheckAssigneeMembership(ok); err != nil {
					return taskOut{}, err
				}
			}

			if len(updates) == 0 {
				return taskOut{}, apperr.Validation("body", "no fields to update")
			}

			if err := tx.Model(&domain.Task{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
				return taskOut{}, apperr.Internal("update task", err)
			}
			updated, err := repo.FindTask(tx, t.ID)
			if err != nil || updated == nil {
				return taskOut{}, apperr.Internal("reload task", err)
			}
			return toTaskOut(updated), nil
		},
	})

	// 删除：任务所在项目的成员或管理员
	httpez.RegisterAction[struct{}, gin.H](ez, db, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/tasks/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			t, _, err := loadTaskWithRole(c, tx, authz.DeleteTask)
			if err != nil {
				return nil, err
			}
			if err := tx.Delete(&domain.Task{}, "id = ?", t.ID).Error; err != nil {
				return nil, apperr.Internal("delete task", err)
			}
			return gin.H{"id": t.ID}, nil
		},
	})
}

func loadTaskNoAuthz(c *gin.Context, tx *gorm.DB) (*domain.Task, domain.ProjectRole, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return nil, "", err
	}
	t, err := repo.FindTask(tx, id)
	if err != nil {
		return nil, "", apperr.Internal("lookup task", err)
	}
	if t == nil {
		return nil, "", apperr.NotFound("task")
	}
	p := mdw.CurrentPrincipal(c)
	role, err := repo.MembershipRole(tx, t.ProjectID, p.UserID)
	if err != nil {
		return nil, "", apperr.Internal("lookup membership", err)
	}
	return t, role, nil
}

func loadTaskWithRole(c *gin.Context, tx *gorm.DB, act authz.Action) (*domain.Task, domain.ProjectRole, error) {
	t, role, err := loadTaskNoAuthz(c, tx)
	if err != nil {
		return nil, "", err
	}
	p := mdw.CurrentPrincipal(c)
	if err := authz.Require(p, act, authz.Facts{MemberRole: role}); err != nil {
		return nil, "", err
	}
	return t, role, nil
}
