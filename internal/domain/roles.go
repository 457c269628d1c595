package domain

// GlobalRole 全局角色（封闭枚举，不接受任意字符串）
type GlobalRole string

const (
	RoleAdmin GlobalRole = "ADMIN"
	RoleUser  GlobalRole = "USER"
)

func (r GlobalRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// ProjectRole 项目内角色
type ProjectRole string

const (
	RoleOwner  ProjectRole = "OWNER"
	RoleMember ProjectRole = "MEMBER"
)

func (r ProjectRole) Valid() bool {
	switch r {
	case RoleOwner, RoleMember:
		return true
	}
	return false
}

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusReview     TaskStatus = "REVIEW"
	StatusDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
