package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/domain"
	"taskhub/internal/repo"
	httpez "taskhub/internal/transport/http/ez"
	mdw "taskhub/internal/transport/http/middleware"
)

type projectsModule struct{ db *gorm.DB }

func (m *projectsModule) Priority() int { return 20 }

func (m *projectsModule) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)
	db := m.db

	// 列表：管理员全量，普通用户按成员关系
	type listQ struct {
		Limit int `form:"limit"`
	}
	httpez.RegisterAction[listQ, []domain.Project](ez, db, httpez.Action[listQ, []domain.Project]{
		Method: http.MethodGet,
		Path:   "/projects",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) ([]domain.Project, error) {
			p := mdw.CurrentPrincipal(c)
			out, err := repo.ProjectsVisibleTo(tx, p, in.Limit)
			if err != nil {
				return nil, apperr.Internal("list projects", err)
			}
			return out, nil
		},
	})

	// 创建：项目 + 创建者 OWNER 成员两条记录同一事务落库，
	// 不存在没有任何 OWNER 的中间状态
	type createIn struct {
		Name        string `json:"name"        binding:"required,max=128"`
		Description string `json:"description" binding:"required,max=1024"`
	}
	httpez.RegisterAction[createIn, domain.Project](ez, db, httpez.Action[createIn, domain.Project]{
		Method: http.MethodPost,
		Path:   "/projects",
		Binder: httpez.BindJSON,
		Auth:   true,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *createIn) (domain.Project, error) {
			p := mdw.CurrentPrincipal(c)
			if err := authz.Require(p, authz.CreateProject, authz.Facts{}); err != nil {
				return domain.Project{}, err
			}
			prj := domain.Project{
				Name:        strings.TrimSpace(in.Name),
				Description: in.Description,
				CreatedBy:   p.UserID,
			}
			if err := tx.Create(&prj).Error; err != nil {
				return domain.Project{}, apperr.Internal("create project", err)
			}
			owner := domain.ProjectMember{
				ProjectID: prj.ID,
				UserID:    p.UserID,
				Role:      domain.RoleOwner,
			}
			if err := tx.Create(&owner).Error; err != nil {
				return domain.Project{}, apperr.Internal("create owner membership", err)
			}
			return prj, nil
		},
	})

	// 详情
	httpez.RegisterAction[struct{}, domain.Project](ez, db, httpez.Action[struct{}, domain.Project]{
		Method: http.MethodGet,
		Path:   "/projects/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (domain.Project, error) {
			prj, _, err := loadProjectWithRole(c, tx, authz.ViewProject)
			if err != nil {
				return domain.Project{}, err
			}
			return *prj, nil
		},
	})

	// 更新：OWNER 或管理员
	type updateIn struct {
		Name        string `json:"name"        binding:"required,max=128"`
		Description string `json:"description" binding:"required,max=1024"`
	}
	httpez.RegisterAction[updateIn, domain.Project](ez, db, httpez.Action[updateIn, domain.Project]{
		Method: http.MethodPut,
		Path:   "/projects/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *updateIn) (domain.Project, error) {
			prj, _, err := loadProjectWithRole(c, tx, authz.UpdateProject)
			if err != nil {
				return domain.Project{}, err
			}
			prj.Name = strings.TrimSpace(in.Name)
			prj.Description = in.Description
			if err := tx.Save(prj).Error; err != nil {
				return domain.Project{}, apperr.Internal("update project", err)
			}
			return *prj, nil
		},
	})

	// 删除：OWNER 或管理员；任务、成员随项目一起删
	httpez.RegisterAction[struct{}, gin.H](ez, db, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/projects/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			prj, _, err := loadProjectWithRole(c, tx, authz.DeleteProject)
			if err != nil {
				return nil, err
			}
			if err := repo.DeleteProjectCascade(tx, prj.ID); err != nil {
				return nil, apperr.Internal("delete project", err)
			}
			return gin.H{"id": prj.ID}, nil
		},
	})

	// 可加入的用户（还不是成员的）：管理成员权限
	httpez.RegisterAction[struct{}, []domain.UserSummary](ez, db, httpez.Action[struct{}, []domain.UserSummary]{
		Method: http.MethodGet,
		Path:   "/projects/:id/available-users",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) ([]domain.UserSummary, error) {
			prj, _, err := loadProjectWithRole(c, tx, authz.ManageMembers)
			if err != nil {
				return nil, err
			}
			us, err := repo.AvailableUsers(tx, prj.ID)
			if err != nil {
				return nil, apperr.Internal("list available users", err)
			}
			out := make([]domain.UserSummary, 0, len(us))
			for i := range us {
				out = append(out, us[i].Summary())
			}
			return out, nil
		},
	})
}

// loadProjectWithRole 取项目（404 兜底）、查主体在其中的角色并做动作判定。
// 项目相关的动作统一走这一条路径。
func loadProjectWithRole(c *gin.Context, tx *gorm.DB, act authz.Action) (*domain.Project, domain.ProjectRole, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return nil, "", err
	}
	prj, err := repo.FindProject(tx, id)
	if err != nil {
		return nil, "", apperr.Internal("lookup project", err)
	}
	if prj == nil {
		return nil, "", apperr.NotFound("project")
	}
	p := mdw.CurrentPrincipal(c)
	role, err := repo.MembershipRole(tx, prj.ID, p.UserID)
	if err != nil {
		return nil, "", apperr.Internal("lookup membership", err)
	}
	if err := authz.Require(p, act, authz.Facts{MemberRole: role}); err != nil {
		return nil, "", err
	}
	return prj, role, nil
}
