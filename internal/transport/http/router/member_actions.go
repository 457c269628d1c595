package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskhub/internal/apperr"
	"taskhub/internal/authz"
	"taskhub/internal/domain"
	"taskhub/internal/repo"
	httpez "taskhub/internal/transport/http/ez"
)

type membersModule struct{ db *gorm.DB }

func (m *membersModule) Priority() int { return 30 }

// memberOut 成员行 + 用户信息（含全局角色，前端成员列表要显示）
type memberOut struct {
	ID        uint               `json:"id"`
	ProjectID uint               `json:"projectId"`
	UserID    uint               `json:"userId"`
	Role      domain.ProjectRole `json:"role"`
	CreatedAt time.Time          `json:"createdAt"`
	User      memberUser         `json:"user"`
}

type memberUser struct {
	ID    uint              `json:"id"`
	Email string            `json:"email"`
	Name  string            `json:"name"`
	Role  domain.GlobalRole `json:"role"`
}

func toMemberOut(m *domain.ProjectMember) memberOut {
	return memberOut{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		UserID:    m.UserID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		User: memberUser{
			ID:    m.User.ID,
			Email: m.User.Email,
			Name:  m.User.Name,
			Role:  m.User.Role,
		},
	}
}

// 守卫计数（last owner）和写入必须同一事务，并发降级才不会双双通过
var memberTxOpts = &sql.TxOptions{Isolation: sql.LevelSerializable}

func (m *membersModule) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)
	db := m.db

	// 成员列表：项目成员或管理员可见
	httpez.RegisterAction[struct{}, []memberOut](ez, db, httpez.Action[struct{}, []memberOut]{
		Method: http.MethodGet,
		Path:   "/projects/:id/members",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) ([]memberOut, error) {
			prj, _, err := loadProjectWithRole(c, tx, authz.ViewMembers)
			if err != nil {
				return nil, err
			}
			ms, err := repo.ListMembers(tx, prj.ID)
			if err != nil {
				return nil, apperr.Internal("list members", err)
			}
			out := make([]memberOut, 0, len(ms))
			for i := range ms {
				out = append(out, toMemberOut(&ms[i]))
			}
			return out, nil
		},
	})

	// 加成员：OWNER 或管理员；(projectId, userId) 不可重复
	type addIn struct {
		UserID uint               `json:"userId" binding:"required"`
		Role   domain.ProjectRole `json:"role"   binding:"required"`
	}
	httpez.RegisterAction[addIn, memberOut](ez, db, httpez.Action[addIn, memberOut]{
		Method:    http.MethodPost,
		Path:      "/projects/:id/members",
		Binder:    httpez.BindJSON,
		Auth:      true,
		UseTx:     true,
		TxOptions: memberTxOpts,
		Handler: func(c *gin.Context, tx *gorm.DB, in *addIn) (memberOut, error) {
			if !in.Role.Valid() {
				return memberOut{}, apperr.Validation("role", "must be OWNER or MEMBER")
			}
			prj, _, err := loadProjectWithRole(c, tx, authz.ManageMembers)
			if err != nil {
				return memberOut{}, err
			}
			u, err := repo.FindUserByID(tx, in.UserID)
			if err != nil {
				return memberOut{}, apperr.Internal("lookup user", err)
			}
			if u == nil {
				return memberOut{}, apperr.NotFound("user")
			}
			exists, err := repo.IsMember(tx, prj.ID, in.UserID)
			if err != nil {
				return memberOut{}, apperr.Internal("lookup membership", err)
			}
			if err := authz.CheckUniqueMember(exists); err != nil {
				return memberOut{}, err
			}
			row := domain.ProjectMember{ProjectID: prj.ID, UserID: in.UserID, Role: in.Role}
			if err := tx.Create(&row).Error; err != nil {
				if repo.IsDupKey(err) {
					return memberOut{}, apperr.Conflict("user is already a member of this project")
				}
				return memberOut{}, apperr.Internal("add member", err)
			}
			row.User = *u
			return toMemberOut(&row), nil
		},
	})

	// 改成员角色：不能把最后一个 OWNER 降下去
	type roleIn struct {
		Role domain.ProjectRole `json:"role" binding:"required"`
	}
	httpez.RegisterAction[roleIn, memberOut](ez, db, httpez.Action[roleIn, memberOut]{
		Method:    http.MethodPut,
		Path:      "/projects/:id/members/:memberId",
		Binder:    httpez.BindJSON,
		Auth:      true,
		UseTx:     true,
		TxOptions: memberTxOpts,
		Handler: func(c *gin.Context, tx *gorm.DB, in *roleIn) (memberOut, error) {
			if !in.Role.Valid() {
				return memberOut{}, apperr.Validation("role", "must be OWNER or MEMBER")
			}
			prj, _, err := loadProjectWithRole(c, tx, authz.ManageMembers)
			if err != nil {
				return memberOut{}, err
			}
			memberID, err := pathID(c, "memberId")
			if err != nil {
				return memberOut{}, err
			}
			row, err := repo.FindMember(tx, prj.ID, memberID)
			if err != nil {
				return memberOut{}, apperr.Internal("lookup member", err)
			}
			if row == nil {
				return memberOut{}, apperr.NotFound("member")
			}
			owners, err := repo.OwnerCount(tx, prj.ID)
			if err != nil {
				return memberOut{}, apperr.Internal("count owners", err)
			}
			if err := authz.CheckOwnerDemotion(row.Role, in.Role, owners); err != nil {
				return memberOut{}, err
			}
			row.Role = in.Role
			if err := tx.Model(&domain.ProjectMember{}).
				Where("id = ?", row.ID).
				Update("role", in.Role).Error; err != nil {
				return memberOut{}, apperr.Internal("update member", err)
			}
			return toMemberOut(row), nil
		},
	})

	// 移除成员：不能删最后一个 OWNER
	httpez.RegisterAction[struct{}, gin.H](ez, db, httpez.Action[struct{}, gin.H]{
		Method:    http.MethodDelete,
		Path:      "/projects/:id/members/:memberId",
		Binder:    httpez.BindNone,
		Auth:      true,
		UseTx:     true,
		TxOptions: memberTxOpts,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			prj, _, err := loadProjectWithRole(c, tx, authz.ManageMembers)
			if err != nil {
				return nil, err
			}
			memberID, err := pathID(c, "memberId")
			if err != nil {
				return nil, err
			}
			row, err := repo.FindMember(tx, prj.ID, memberID)
			if err != nil {
				return nil, apperr.Internal("lookup member", err)
			}
			if row == nil {
				return nil, apperr.NotFound("member")
			}
			owners, err := repo.OwnerCount(tx, prj.ID)
			if err != nil {
				return nil, apperr.Internal("count owners", err)
			}
			if err := authz.CheckOwnerRemoval(row.Role, owners); err != nil {
				return nil, err
			}
			if err := tx.Delete(&domain.ProjectMember{}, "id = ?", row.ID).Error; err != nil {
				return nil, apperr.Internal("remove member", err)
			}
			return gin.H{"id": row.ID}, nil
		},
	})
}
