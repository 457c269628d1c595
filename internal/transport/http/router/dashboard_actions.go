package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskhub/internal/apperr"
	"taskhub/internal/core/cache"
	"taskhub/internal/repo"
	httpez "taskhub/internal/transport/http/ez"
	mdw "taskhub/internal/transport/http/middleware"
)

type dashboardModule struct {
	db *gorm.DB
	ch *cache.Cache
}

func (m *dashboardModule) Priority() int { return 50 }

const statsTTL = 30 * time.Second

func (m *dashboardModule) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)
	db := m.db

	// 概览统计：按当前用户可见范围计数，Redis 缓存 30s
	httpez.RegisterAction[struct{}, *repo.DashboardStats](ez, db, httpez.Action[struct{}, *repo.DashboardStats]{
		Method: http.MethodGet,
		Path:   "/dashboard/stats",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (*repo.DashboardStats, error) {
			p := mdw.CurrentPrincipal(c)
			load := func(ctx context.Context) (*repo.DashboardStats, error) {
				return repo.Stats(tx.WithContext(ctx), p)
			}
			if m.ch != nil {
				key := fmt.Sprintf("stats:u:%d:r:%s", p.UserID, p.Role)
				st, err := cache.GetOrLoadJSON[repo.DashboardStats](m.ch, c.Request.Context(), key, statsTTL, load)
				if err == nil && st != nil {
					return st, nil
				}
				// 缓存故障不影响接口，直接回源
			}
			st, err := load(c.Request.Context())
			if err != nil {
				return nil, apperr.Internal("load stats", err)
			}
			return st, nil
		},
	})
}
