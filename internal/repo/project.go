package repo

import (
	"errors"

	"gorm.io/gorm"

	"taskhub/internal/authz"
	"taskhub/internal/domain"
)

func FindProject(tx *gorm.DB, id uint) (*domain.Project, error) {
	var p domain.Project
	err := tx.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProjectsVisibleTo 管理员看全部，普通用户只看自己是成员的项目
func ProjectsVisibleTo(tx *gorm.DB, p authz.Principal, limit int) ([]domain.Project, error) {
	q := tx.Model(&domain.Project{}).Order("created_at DESC")
	if !p.IsAdmin() {
		q = q.Joins("JOIN project_members pm ON pm.project_id = projects.id").
			Where("pm.user_id = ?", p.UserID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Project
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MembershipRole 返回用户在项目里的角色，非成员为空串
func MembershipRole(tx *gorm.DB, projectID, userID uint) (domain.ProjectRole, error) {
	var m domain.ProjectMember
	err := tx.First(&m, "project_id = ? AND user_id = ?", projectID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

func IsMember(tx *gorm.DB, projectID, userID uint) (bool, error) {
	role, err := MembershipRole(tx, projectID, userID)
	return role != "", err
}

func OwnerCount(tx *gorm.DB, projectID uint) (int64, error) {
	var n int64
	err := tx.Model(&domain.ProjectMember{}).
		Where("project_id = ? AND role = ?", projectID, domain.RoleOwner).
		Count(&n).Error
	return n, err
}

func FindMember(tx *gorm.DB, projectID, memberID uint) (*domain.ProjectMember, error) {
	var m domain.ProjectMember
	err := tx.Preload("User").First(&m, "id = ? AND project_id = ?", memberID, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers OWNER 在前，同角色按用户名/邮箱排
func ListMembers(tx *gorm.DB, projectID uint) ([]domain.ProjectMember, error) {
	var ms []domain.ProjectMember
	err := tx.Preload("User").
		Joins("JOIN users u ON u.id = project_members.user_id").
		Where("project_members.project_id = ?", projectID).
		Order("project_members.role, u.name, u.email").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return ms, nil
}

// AvailableUsers 尚未加入该项目的用户
func AvailableUsers(tx *gorm.DB, projectID uint) ([]domain.User, error) {
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&domain.ProjectMember{}).
		Select("user_id").
		Where("project_id = ?", projectID)
	var us []domain.User
	err := tx.Model(&domain.User{}).
		Where("id NOT IN (?)", sub).
		Order("name, email").
		Find(&us).Error
	if err != nil {
		return nil, err
	}
	return us, nil
}

// DeleteProjectCascade 项目连同任务、成员一起删，必须在事务里调用
func DeleteProjectCascade(tx *gorm.DB, projectID uint) error {
	if err := tx.Where("project_id = ?", projectID).Delete(&domain.Task{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&domain.ProjectMember{}).Error; err != nil {
		return err
	}
	return tx.Delete(&domain.Project{}, "id = ?", projectID).Error
}
