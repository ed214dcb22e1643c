package service

import "workshop-tracker/backend/internal/model"

// Actor 请求级会话对象：由认证中间件从 Token 还原，显式传入每个业务调用
type Actor struct {
	Code           string
	Name           string
	Role           string
	SupervisorCode string
}

// Is 判断是否为给定角色之一
func (a Actor) Is(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsSuperAdmin 超级管理员
func (a Actor) IsSuperAdmin() bool { return a.Role == model.RoleSuperAdmin }

// Supervises 是否为该人员的直属主管
func (a Actor) Supervises(p *model.Person) bool {
	return a.Role == model.RoleSupervisor &&
		p != nil && p.SupervisorCode != nil && *p.SupervisorCode == a.Code
}
