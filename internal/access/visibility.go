package access

import "student-wellness/backend/internal/model"

// IsVisible 判定帖子对权限快照是否可见，按顺序求值，首条命中的规则决定结果：
//  1. 仅版主可见的帖子，对非管理员且非版主不可见；
//  2. 活动帖归属某部门，而查看者是另一部门的负责人且非管理员，不可见；
//  3. 其余情况可见。
//
// 纯函数，对任意输入（含 nil）都返回确定结果。
func IsVisible(post *model.Post, ctx Context) bool {
	if post == nil {
		return false
	}
	if post.Visibility == model.VisibilityModerators && !ctx.isAdmin && !ctx.isModerator {
		return false
	}
	if post.Type == model.PostTypeActivity &&
		post.CategoryDepartmentID != nil &&
		ctx.headOf != nil &&
		ctx.headOf.ID != *post.CategoryDepartmentID &&
		!ctx.isAdmin {
		return false
	}
	return true
}

// FilterVisible 返回 posts 中对 ctx 可见的子集，保持原顺序
func FilterVisible(posts []model.Post, ctx Context) []model.Post {
	out := make([]model.Post, 0, len(posts))
	for i := range posts {
		if IsVisible(&posts[i], ctx) {
			out = append(out, posts[i])
		}
	}
	return out
}

// CanModerate 管理员或在任版主
func CanModerate(ctx Context) bool {
	return ctx.isAdmin || ctx.isModerator
}

// CanDeletePost 作者本人、版主、管理员可删除帖子
func CanDeletePost(post *model.Post, ctx Context) bool {
	if post == nil {
		return false
	}
	return (ctx.userID != "" && post.AuthorID == ctx.userID) || CanModerate(ctx)
}

// CanDeleteComment 评论作者、版主、管理员可删除评论
func CanDeleteComment(comment *model.Comment, ctx Context) bool {
	if comment == nil {
		return false
	}
	return (ctx.userID != "" && comment.AuthorID == ctx.userID) || CanModerate(ctx)
}

// CanViewAnonymousComplaints 匿名投诉仅管理员可查看
func CanViewAnonymousComplaints(ctx Context) bool {
	return ctx.isAdmin
}

// CanViewDepartmentComplaint 管理员、所属部门负责人、提交人本人可查看部门投诉
func CanViewDepartmentComplaint(c *model.DepartmentComplaint, ctx Context) bool {
	if c == nil {
		return false
	}
	if ctx.isAdmin || ctx.IsHeadOf(c.DepartmentID) {
		return true
	}
	return ctx.userID != "" && c.SubmittedBy == ctx.userID
}

// CanTransition 判定能否变更投诉状态：
// 管理员可变更任意投诉；部门投诉还可由该部门负责人变更；匿名投诉仅管理员。
func CanTransition(channel, departmentID string, ctx Context) bool {
	if ctx.isAdmin {
		return true
	}
	return channel == model.ChannelDepartment && ctx.IsHeadOf(departmentID)
}
