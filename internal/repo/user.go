// Package repo 是核心判定所需事实与实体的参数化查询。
// 所有函数都在调用方给的 *gorm.DB 上执行，动作层开事务时
// 传入的是事务句柄，计数检查与写入因此落在同一事务里。
package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"taskhub/internal/domain"
)

func UserCount(tx *gorm.DB) (int64, error) {
	var n int64
	err := tx.Model(&domain.User{}).Count(&n).Error
	return n, err
}

func AdminCount(tx *gorm.DB) (int64, error) {
	var n int64
	err := tx.Model(&domain.User{}).Where("role = ?", domain.RoleAdmin).Count(&n).Error
	return n, err
}

// FindUserByID 查不到返回 (nil, nil)
func FindUserByID(tx *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	err := tx.First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func FindUserByEmail(tx *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := tx.First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers 管理端分页列表，q 模糊匹配邮箱或姓名，withDeleted 时含已封禁账号
func ListUsers(tx *gorm.DB, q string, withDeleted bool, offset, limit int) ([]domain.User, int64, error) {
	db := tx.Model(&domain.User{})
	if withDeleted {
		db = db.Unscoped()
	}
	if q != "" {
		like := "%" + q + "%"
		db = db.Where("email LIKE ? OR name LIKE ?", like, like)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var us []domain.User
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	err := db.Order("id").Offset(offset).Limit(limit).Find(&us).Error
	return us, total, err
}

// IsDupKey 唯一索引冲突的兜底判断（不依赖 gorm.ErrDuplicatedKey，驱动间行为不一）
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
