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
	"taskhub/internal/core/auth"
	"taskhub/internal/domain"
	"taskhub/internal/repo"
	httpez "taskhub/internal/transport/http/ez"
	mdw "taskhub/internal/transport/http/middleware"
	"taskhub/pkg/utils"
)

// mountAuthActions /auth/register /auth/login（公共）+ /me（鉴权）
func mountAuthActions(api, authed *gin.RouterGroup, db *gorm.DB, jwter *auth.JWTer) {
	ezPublic := httpez.New(api)

	type userOut struct {
		ID    uint              `json:"id"`
		Email string            `json:"email"`
		Name  string            `json:"name"`
		Role  domain.GlobalRole `json:"role"`
	}

	// 注册：全库第一个用户成为 ADMIN，其余一律 USER（事务内计数 + 插入）
	type registerIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Name     string `json:"name"     binding:"omitempty,max=64"`
	}
	httpez.RegisterAction[registerIn, userOut](ezPublic, db, httpez.Action[registerIn, userOut]{
		Method:    http.MethodPost,
		Path:      "/auth/register",
		Binder:    httpez.BindJSON,
		UseTx:     true,
		TxOptions: &sql.TxOptions{Isolation: sql.LevelSerializable},
		Handler: func(c *gin.Context, tx *gorm.DB, in *registerIn) (userOut, error) {
			email := strings.ToLower(strings.TrimSpace(in.Email))

			if existing, err := repo.FindUserByEmail(tx, email); err != nil {
				return userOut{}, apperr.Internal("lookup user", err)
			} else if existing != nil {
				return userOut{}, apperr.Conflict("user with this email already exists")
			}

			count, err := repo.UserCount(tx)
			if err != nil {
				return userOut{}, apperr.Internal("count users", err)
			}

			u := domain.User{
				Email:        email,
				Name:         strings.TrimSpace(in.Name),
				PasswordHash: utils.HashPassword(in.Password),
				Role:         authz.RegistrationRole(count),
			}
			if err := tx.Create(&u).Error; err != nil {
				if repo.IsDupKey(err) {
					return userOut{}, apperr.Conflict("user with this email already exists")
				}
				return userOut{}, apperr.Internal("create user", err)
			}
			return userOut{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}, nil
		},
	})

	// 登录：校验密码并签发 JWT
	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		Token string  `json:"token"`
		User  userOut `json:"user"`
	}
	httpez.RegisterAction[loginIn, loginOut](ezPublic, db, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *loginIn) (loginOut, error) {
			email := strings.ToLower(strings.TrimSpace(in.Email))
			u, err := repo.FindUserByEmail(tx, email)
			if err != nil {
				return loginOut{}, apperr.Internal("lookup user", err)
			}
			// 软删（封禁）用户走默认 scope 查不到，和密码错误同样返回
			if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
				return loginOut{}, apperr.Unauthenticated("invalid credentials")
			}
			tok, err := jwter.Issue(u.ID, u.Role)
			if err != nil || tok == "" {
				return loginOut{}, apperr.Internal("issue token", err)
			}
			return loginOut{
				Token: tok,
				User:  userOut{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role},
			}, nil
		},
	})

	// /me 个人资料
	ezAuth := httpez.New(authed)

	type meOut struct {
		userOut
		CreatedAt time.Time `json:"createdAt"`
	}
	httpez.RegisterAction[struct{}, meOut](ezAuth, db, httpez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (meOut, error) {
			p := mdw.CurrentPrincipal(c)
			u, err := repo.FindUserByID(tx, p.UserID)
			if err != nil {
				return meOut{}, apperr.Internal("lookup user", err)
			}
			if u == nil {
				return meOut{}, apperr.NotFound("user")
			}
			return meOut{
				userOut:   userOut{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role},
				CreatedAt: u.CreatedAt,
			}, nil
		},
	})
}
