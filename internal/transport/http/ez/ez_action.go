// Package ez 把一个接口声明成 Action 一行注册：
// 绑定入参 → 还原主体 → 业务处理（可选事务）→ 统一错误映射。
package ez

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskhub/internal/apperr"
	mdw "taskhub/internal/transport/http/middleware"
	resp "taskhub/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// Binder 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none" // 自己从 c.Param 取
)

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method string // "GET" | "POST" | "PUT" | "DELETE"
	Path   string
	Binder Binder
	Auth   bool // 要求已登录（上下文里有 uid）
	UseTx  bool // 包一层 gorm 事务；守卫计数类必须开
	// TxOptions 需要更强隔离时设置（如首注册、角色变更的计数检查）
	TxOptions *sql.TxOptions
	Handler   func(c *gin.Context, tx *gorm.DB, in *I) (O, error)
}

// RegisterAction 在 EZ 分组下注册动作接口
func RegisterAction[I any, O any](e EZ, db *gorm.DB, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth {
			if p := mdw.CurrentPrincipal(c); p.Anonymous() {
				c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone
		}
		if bindErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		var out O
		var err error
		if a.UseTx {
			run := func(tx *gorm.DB) error {
				o, e := a.Handler(c, tx, &in)
				out = o
				return e
			}
			if a.TxOptions != nil {
				err = db.WithContext(c).Transaction(run, a.TxOptions)
			} else {
				err = db.WithContext(c).Transaction(run)
			}
		} else {
			out, err = a.Handler(c, db.WithContext(c), &in)
		}

		if err != nil {
			c.JSON(http.StatusOK, toResp(err))
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

// toResp 错误分类 → 响应码。存储层未分类错误一律 500，不透出细节。
func toResp(err error) resp.Resp {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return resp.Error(CodeFor(ae.Kind), ae.Error())
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return resp.Error(resp.CodeNotFound, "not found")
	}
	return resp.Error(resp.CodeServerError, "internal error")
}

func CodeFor(k apperr.Kind) int {
	switch k {
	case apperr.KindUnauthenticated:
		return resp.CodeUnauthorized
	case apperr.KindForbidden:
		return resp.CodeForbidden
	case apperr.KindInvariant, apperr.KindValidation:
		return resp.CodeBadRequest
	case apperr.KindNotFound:
		return resp.CodeNotFound
	case apperr.KindConflict:
		return resp.CodeConflict
	}
	return resp.CodeServerError
}
