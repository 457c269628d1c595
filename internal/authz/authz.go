// Package authz 是访问控制核心：一个纯函数形式的规则引擎加一组不变量守卫。
// 所有判定所需的事实（成员角色、管理员数量等）由调用方先查好传入，
// 这里不做任何 I/O，便于单独测试。
package authz

import (
	"taskhub/internal/apperr"
	"taskhub/internal/domain"
)

// Principal 已解析出的请求主体。UserID == 0 视为匿名。
type Principal struct {
	UserID uint
	Role   domain.GlobalRole
}

func (p Principal) Anonymous() bool { return p.UserID == 0 }
func (p Principal) IsAdmin() bool   { return !p.Anonymous() && p.Role == domain.RoleAdmin }

// Action 封闭的动作枚举，规则表按它穷举。
type Action int

const (
	ViewProject Action = iota
	CreateProject
	UpdateProject
	DeleteProject
	ViewMembers
	ManageMembers // 加人/移除/改角色/查看可加入用户
	ViewTask
	CreateTask
	UpdateTask
	DeleteTask
	ManageUsers // 用户列表、建用户、改任意用户角色、封禁
)

// Facts 判定所需的既得事实。
type Facts struct {
	// MemberRole 主体在目标项目里的角色，非成员为空串。
	MemberRole domain.ProjectRole
	// MoveProject 任务更新是否同时改变所属项目。
	MoveProject bool
	// DestMemberRole 主体在目标项目（移动的去向）里的角色。
	DestMemberRole domain.ProjectRole
}

type Decision struct {
	Allow  bool
	Reason string
}

func allow() Decision            { return Decision{Allow: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Decide 对 (主体, 动作, 事实) 做出允许/拒绝判定。逐条匹配，默认拒绝。
func Decide(p Principal, act Action, f Facts) Decision {
	if p.Anonymous() {
		return deny("authentication required")
	}

	switch act {
	case CreateProject:
		// 任何已登录用户都可以建项目
		return allow()

	case ViewProject, ViewMembers, ViewTask, CreateTask, DeleteTask:
		if p.IsAdmin() || f.MemberRole != "" {
			return allow()
		}
		return deny("you do not have access to this project")

	case UpdateProject, DeleteProject:
		if p.IsAdmin() || f.MemberRole == domain.RoleOwner {
			return allow()
		}
		return deny("only project owners or admins can manage this project")

	case ManageMembers:
		if p.IsAdmin() || f.MemberRole == domain.RoleOwner {
			return allow()
		}
		return deny("only project owners or admins can manage members")

	case UpdateTask:
		// 按当前所属项目判定；若同时移动项目，目标项目也要有权限
		if !p.IsAdmin() && f.MemberRole == "" {
			return deny("you do not have access to this project")
		}
		if f.MoveProject && !p.IsAdmin() && f.DestMemberRole == "" {
			return deny("you do not have access to the target project")
		}
		return allow()

	case ManageUsers:
		if p.IsAdmin() {
			return allow()
		}
		return deny("admin access required")
	}

	return deny("unknown action")
}

// Require 把判定结果折算成 apperr：匿名 → 未认证，其余拒绝 → 禁止。
func Require(p Principal, act Action, f Facts) error {
	d := Decide(p, act, f)
	if d.Allow {
		return nil
	}
	if p.Anonymous() {
		return apperr.Unauthenticated(d.Reason)
	}
	return apperr.Forbidden(d.Reason)
}

// RegistrationRole 自注册的角色判定：全库第一个用户成为 ADMIN。
// 必须在持有事务的前提下调用（计数与插入同一事务内）。
func RegistrationRole(userCount int64) domain.GlobalRole {
	if userCount == 0 {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}
