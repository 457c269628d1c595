package router

import (
	"database/sql"
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
	"taskhub/pkg/utils"
)

// adminUsersModule 管理端用户管理，整组路由已由 AuthJWT 限定 ADMIN
type adminUsersModule struct{ db *gorm.DB }

func (m *adminUsersModule) Priority() int { return 10 }

type adminUserOut struct {
	ID        uint              `json:"id"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Role      domain.GlobalRole `json:"role"`
	Banned    bool              `json:"banned"`
	CreatedAt time.Time         `json:"createdAt"`
}

func toAdminUserOut(u *domain.User) adminUserOut {
	return adminUserOut{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Banned:    u.DeletedAt.Valid,
		CreatedAt: u.CreatedAt,
	}
}

var adminTxOpts = &sql.TxOptions{Isolation: sql.LevelSerializable}

func (m *adminUsersModule) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g)
	db := m.db

	type listQ struct {
		Offset      int    `form:"offset"`
		Limit       int    `form:"limit"`
		Q           string `form:"q"`
		WithDeleted bool   `form:"with_deleted"`
	}
	type listOut struct {
		Total int64          `json:"total"`
		Items []adminUserOut `json:"items"`
	}
	httpez.RegisterAction[listQ, listOut](ez, db, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (listOut, error) {
			us, total, err := repo.ListUsers(tx, strings.TrimSpace(in.Q), in.WithDeleted, in.Offset, in.Limit)
			if err != nil {
				return listOut{}, apperr.Internal("list users", err)
			}
			items := make([]adminUserOut, 0, len(us))
			for i := range us {
				items = append(items, toAdminUserOut(&us[i]))
			}
			return listOut{Total: total, Items: items}, nil
		},
	})

	// 代建账号（管理员替用户开户）
	type createIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Name     string `json:"name"     binding:"omitempty,max=64"`
		Role     string `json:"role"     binding:"omitempty"`
	}
	httpez.RegisterAction[createIn, adminUserOut](ez, db, httpez.Action[createIn, adminUserOut]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: httpez.BindJSON,
		Auth:   true,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *createIn) (adminUserOut, error) {
			role := domain.RoleUser
			if in.Role != "" {
				role = domain.GlobalRole(in.Role)
				if !role.Valid() {
					return adminUserOut{}, apperr.Validation("role", "unknown role")
				}
			}
			email := strings.ToLower(strings.TrimSpace(in.Email))
			u := domain.User{
				Email:        email,
				Name:         strings.TrimSpace(in.Name),
				PasswordHash: utils.HashPassword(in.Password),
				Role:         role,
			}
			if err := tx.Create(&u).Error; err != nil {
				if repo.IsDupKey(err) {
					return adminUserOut{}, apperr.Conflict("user with this email already exists")
				}
				return adminUserOut{}, apperr.Internal("create user", err)
			}
			return toAdminUserOut(&u), nil
		},
	})

	// 改全局角色：不能改自己的；降级前校验不是最后一个 ADMIN
	type roleIn struct {
		Role string `json:"role" binding:"required"`
	}
	httpez.RegisterAction[roleIn, adminUserOut](ez, db, httpez.Action[roleIn, adminUserOut]{
		Method:    http.MethodPut,
		Path:      "/users/:id",
		Binder:    httpez.BindJSON,
		Auth:      true,
		UseTx:     true,
		TxOptions: adminTxOpts,
		Handler: func(c *gin.Context, tx *gorm.DB, in *roleIn) (adminUserOut, error) {
			p := mdw.CurrentPrincipal(c)
			if err := authz.Require(p, authz.ManageUsers, authz.Facts{}); err != nil {
				return adminUserOut{}, err
			}

			next := domain.GlobalRole(in.Role)
			if !next.Valid() {
				return adminUserOut{}, apperr.Validation("role", "unknown role")
			}
			id, err := pathID(c, "id")
			if err != nil {
				return adminUserOut{}, err
			}
			if err := authz.CheckSelfRoleChange(p.UserID, id); err != nil {
				return adminUserOut{}, err
			}

			u, err := repo.FindUserByID(tx, id)
			if err != nil {
				return adminUserOut{}, apperr.Internal("lookup user", err)
			}
			if u == nil {
				return adminUserOut{}, apperr.NotFound("user")
			}
			admins, err := repo.AdminCount(tx)
			if err != nil {
				return adminUserOut{}, apperr.Internal("count admins", err)
			}
			if err := authz.CheckLastAdmin(u.Role, next, admins); err != nil {
				return adminUserOut{}, err
			}

			if err := tx.Model(u).Update("role", next).Error; err != nil {
				return adminUserOut{}, apperr.Internal("update role", err)
			}
			u.Role = next
			return toAdminUserOut(u), nil
		},
	})

	// 封禁（软删除）：登录即失效；不能封自己，不能封掉最后一个 ADMIN
	httpez.RegisterAction[struct{}, gin.H](ez, db, httpez.Action[struct{}, gin.H]{
		Method:    http.MethodPost,
		Path:      "/users/:id/ban",
		Binder:    httpez.BindNone,
		Auth:      true,
		UseTx:     true,
		TxOptions: adminTxOpts,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			p := mdw.CurrentPrincipal(c)
			if err := authz.Require(p, authz.ManageUsers, authz.Facts{}); err != nil {
				return nil, err
			}

			id, err := pathID(c, "id")
			if err != nil {
				return nil, err
			}
			u, err := repo.FindUserByID(tx, id)
			if err != nil {
				return nil, apperr.Internal("lookup user", err)
			}
			if u == nil {
				return nil, apperr.NotFound("user")
			}
			admins, err := repo.AdminCount(tx)
			if err != nil {
				return nil, apperr.Internal("count admins", err)
			}
			if err := authz.CheckBan(p.UserID, u.ID, u.Role, admins); err != nil {
				return nil, err
			}

			if err := tx.Delete(u).Error; err != nil {
				return nil, apperr.Internal("ban user", err)
			}
			return gin.H{"id": u.ID, "banned": true}, nil
		},
	})
}
