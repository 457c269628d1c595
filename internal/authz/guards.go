package authz

import (
	"taskhub/internal/apperr"
	"taskhub/internal/domain"
)

// 守卫在授权通过之后、写库之前执行，保护结构性不变量。
// 计数类守卫必须与写操作在同一事务里求值，否则两次并发降级
// 可能同时通过 "count <= 1" 检查。

// CheckSelfRoleChange 任何人都不能改自己的全局角色，管理员也不行。
func CheckSelfRoleChange(actorID, targetID uint) error {
	if actorID == targetID {
		return apperr.Invariant("cannot change your own role")
	}
	return nil
}

// CheckLastAdmin 阻止把最后一个 ADMIN 降为普通用户。
func CheckLastAdmin(current, next domain.GlobalRole, adminCount int64) error {
	if current == domain.RoleAdmin && next != domain.RoleAdmin && adminCount <= 1 {
		return apperr.Invariant("cannot remove the last admin")
	}
	return nil
}

// CheckOwnerRemoval 阻止删除项目里最后一个 OWNER 成员。
func CheckOwnerRemoval(current domain.ProjectRole, ownerCount int64) error {
	if current == domain.RoleOwner && ownerCount <= 1 {
		return apperr.Invariant("cannot remove the last owner of the project")
	}
	return nil
}

// CheckOwnerDemotion 阻止把最后一个 OWNER 降为 MEMBER。
func CheckOwnerDemotion(current, next domain.ProjectRole, ownerCount int64) error {
	if current == domain.RoleOwner && next != domain.RoleOwner && ownerCount <= 1 {
		return apperr.Invariant("cannot remove the last owner of the project")
	}
	return nil
}

// CheckUniqueMember (projectId, userId) 已存在则拒绝重复加入。
func CheckUniqueMember(alreadyMember bool) error {
	if alreadyMember {
		return apperr.Conflict("user is already a member of this project")
	}
	return nil
}

// CheckAssigneeMembership 任务指派对象必须是（最终）所属项目的成员。
func CheckAssigneeMembership(isMember bool) error {
	if !isMember {
		return apperr.Invariant("assigned user is not a member of the project")
	}
	return nil
}

// CheckBan 封禁的不变量：不能封自己，不能封掉最后一个 ADMIN。
func CheckBan(actorID, targetID uint, targetRole domain.GlobalRole, adminCount int64) error {
	if actorID == targetID {
		return apperr.Invariant("cannot ban yourself")
	}
	if targetRole == domain.RoleAdmin && adminCount <= 1 {
		return apperr.Invariant("cannot ban the last admin")
	}
	return nil
}
