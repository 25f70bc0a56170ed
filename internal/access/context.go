// Package access 定义会话级权限快照 AccessContext 及基于它的纯函数判定。
//
// 三种权限（管理员、版主、部门负责人）相互独立，可任意组合；
// 三者皆无即普通成员，只拥有针对自身内容的权限。
package access

import "encoding/json"

// DepartmentRef 部门负责人关系指向的部门
type DepartmentRef struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Context 会话级权限快照，创建后不可修改；刷新时整体替换
type Context struct {
	userID      string
	email       string
	isAdmin     bool
	isModerator bool
	headOf      *DepartmentRef
}

// New 创建权限快照；headOf 会被复制，调用方后续修改不影响快照
func New(userID, email string, isAdmin, isModerator bool, headOf *DepartmentRef) Context {
	c := Context{
		userID:      userID,
		email:       email,
		isAdmin:     isAdmin,
		isModerator: isModerator,
	}
	if headOf != nil {
		ref := *headOf
		c.headOf = &ref
	}
	return c
}

func (c Context) UserID() string    { return c.userID }
func (c Context) Email() string     { return c.email }
func (c Context) IsAdmin() bool     { return c.isAdmin }
func (c Context) IsModerator() bool { return c.isModerator }

// DepartmentHeadOf 返回负责部门的副本；非部门负责人返回 nil
func (c Context) DepartmentHeadOf() *DepartmentRef {
	if c.headOf == nil {
		return nil
	}
	ref := *c.headOf
	return &ref
}

// IsHeadOf 是否为指定部门的负责人
func (c Context) IsHeadOf(departmentID string) bool {
	return c.headOf != nil && departmentID != "" && c.headOf.ID == departmentID
}

// IsMember 不持有任何权限
func (c Context) IsMember() bool {
	return !c.isAdmin && !c.isModerator && c.headOf == nil
}

// Downgraded 报告 next 相比 c 失去的权限名称，用于审计
func (c Context) Downgraded(next Context) []string {
	var lost []string
	if c.isAdmin && !next.isAdmin {
		lost = append(lost, "admin")
	}
	if c.isModerator && !next.isModerator {
		lost = append(lost, "moderator")
	}
	if c.headOf != nil && (next.headOf == nil || next.headOf.ID != c.headOf.ID) {
		lost = append(lost, "department_head:"+c.headOf.Code)
	}
	return lost
}

// ── 序列化（会话缓存） ──

type snapshot struct {
	UserID           string         `json:"user_id"`
	Email            string         `json:"email"`
	IsAdmin          bool           `json:"is_admin"`
	IsModerator      bool           `json:"is_moderator"`
	DepartmentHeadOf *DepartmentRef `json:"department_head_of,omitempty"`
}

// MarshalJSON 实现 json.Marshaler
func (c Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		UserID:           c.userID,
		Email:            c.email,
		IsAdmin:          c.isAdmin,
		IsModerator:      c.isModerator,
		DepartmentHeadOf: c.headOf,
	})
}

// UnmarshalJSON 实现 json.Unmarshaler，仅供缓存反序列化使用
func (c *Context) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = New(s.UserID, s.Email, s.IsAdmin, s.IsModerator, s.DepartmentHeadOf)
	return nil
}
