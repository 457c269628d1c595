package router

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhub/internal/apperr"
)

// pathID 解析路径里的数字 id
func pathID(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, apperr.Validation(name, "invalid id")
	}
	return uint(v), nil
}
