package model

// ── 角色 ──

const (
	RoleTechnician  = "technician"
	RoleSupervisor  = "supervisor"
	RoleWorkstation = "workstation"
	RoleAdvisor     = "advisor"
	RoleSuperAdmin  = "super_admin"
)

// ValidRole 判断角色取值是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleTechnician, RoleSupervisor, RoleWorkstation, RoleAdvisor, RoleSuperAdmin:
		return true
	}
	return false
}

// Person 人员表，对应 people
// SupervisorCode 为反向引用（技师→主管、顾问→工位），不表示所有权
type Person struct {
	Code           string  `gorm:"type:varchar(50);primaryKey"      json:"code"`
	Name           string  `gorm:"type:varchar(100);not null"       json:"name"`
	PasswordHash   string  `gorm:"type:varchar(255);not null"       json:"-"`
	Role           string  `gorm:"type:varchar(20);not null"        json:"role"`
	SupervisorCode *string `gorm:"type:varchar(50);index"           json:"supervisor_code,omitempty"`
	Target         *int    `json:"target,omitempty"` // 仅工位角色使用
	BaseModel
}

// TableName 指定表名
func (Person) TableName() string { return "people" }
