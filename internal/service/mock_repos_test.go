package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"student-wellness/backend/internal/model"
	"student-wellness/backend/internal/repository"
	pkgerrors "student-wellness/backend/pkg/errors"
)

// ── Mock AdminRepository ──

type mockAdminRepo struct {
	mu     sync.Mutex
	admins map[string]*model.Admin
	err    error // 非 nil 时模拟存储故障
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{admins: make(map[string]*model.Admin)}
}

func (m *mockAdminRepo) Exists(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.admins[userID]
	return ok, nil
}

func (m *mockAdminRepo) Grant(_ context.Context, admin *model.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[admin.UserID] = admin
	return nil
}

func (m *mockAdminRepo) Revoke(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.admins, userID)
	return nil
}

func (m *mockAdminRepo) List(_ context.Context) ([]model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Admin
	for _, a := range m.admins {
		result = append(result, *a)
	}
	return result, nil
}

// ── Mock ModeratorRepository ──

type mockModeratorRepo struct {
	mu   sync.Mutex
	mods map[string]*model.Moderator
	err  error
}

func newMockModeratorRepo() *mockModeratorRepo {
	return &mockModeratorRepo{mods: make(map[string]*model.Moderator)}
}

func (m *mockModeratorRepo) GetByUserID(_ context.Context, userID string) (*model.Moderator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if mod, ok := m.mods[userID]; ok {
		cp := *mod
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockModeratorRepo) Upsert(_ context.Context, mod *model.Moderator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod.IsActive = true
	mod.RevokedAt = nil
	mod.RevokedBy = nil
	cp := *mod
	m.mods[mod.UserID] = &cp
	return nil
}

func (m *mockModeratorRepo) Revoke(_ context.Context, userID, revokedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.mods[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	mod.IsActive = false
	mod.RevokedBy = &revokedBy
	mod.RevokedAt = &now
	return nil
}

func (m *mockModeratorRepo) List(_ context.Context, includeInactive bool) ([]model.Moderator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Moderator
	for _, mod := range m.mods {
		if mod.IsActive || includeInactive {
			result = append(result, *mod)
		}
	}
	return result, nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	mu    sync.Mutex
	depts map[string]*model.Department
	err   error
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{depts: make(map[string]*model.Department)}
}

// deptID 按部门代码生成稳定的 UUID
func deptID(code string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToUpper(code))).String()
}

// add 直接写入一个部门，返回其 ID
func (m *mockDeptRepo) add(code, name, headEmail string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := deptID(code)
	d := &model.Department{DepartmentID: id, Code: code, Name: name, IsActive: true}
	d.Version = 1
	if headEmail != "" {
		d.HeadEmail = &headEmail
	}
	m.depts[id] = d
	return id
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.depts {
		if d.Code == dept.Code || d.Name == dept.Name {
			return pkgerrors.ErrConflict
		}
	}
	if dept.DepartmentID == "" {
		dept.DepartmentID = deptID(dept.Code)
	}
	dept.Version = 1
	cp := *dept
	m.depts[dept.DepartmentID] = &cp
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.depts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByCode(_ context.Context, code string) (*model.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.depts {
		if d.Code == code {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.depts {
		if d.Name == name {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context) ([]model.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Department
	for _, d := range m.depts {
		if d.IsActive {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockDeptRepo) ListAll(_ context.Context) ([]model.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Department
	for _, d := range m.depts {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockDeptRepo) FindByHeadEmail(_ context.Context, email string) ([]model.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Department
	for _, d := range m.depts {
		if d.HeadEmail != nil && strings.EqualFold(*d.HeadEmail, strings.TrimSpace(email)) {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.depts[dept.DepartmentID]
	if !ok || cur.Version != dept.Version {
		return pkgerrors.ErrOptimisticLock
	}
	dept.Version++
	cp := *dept
	m.depts[dept.DepartmentID] = &cp
	return nil
}

// ═══════════════════════════════════════════════════════════
// 帖子 / 投票 / 评论共享的内存存储
// ═══════════════════════════════════════════════════════════
//
// 投票行与计数器在同一把锁下变更，模拟数据库事务。

type memStore struct {
	mu       sync.Mutex
	posts    map[string]*model.Post
	votes    map[string]map[string]string // postID → userID → direction
	comments map[string]*model.Comment
	seq      int

	// conflictsLeft 大于 0 时，接下来的若干次 Transition 直接返回 ErrConflict
	conflictsLeft int
	// beforeTransition 在 Transition 取锁前调用，用于模拟并发修改
	beforeTransition func()
	// transitions 实际执行（非空操作）的转换次数
	transitions int
}

func newMemStore() *memStore {
	return &memStore{
		posts:    make(map[string]*model.Post),
		votes:    make(map[string]map[string]string),
		comments: make(map[string]*model.Comment),
	}
}

// addPost 直接写入一个帖子
func (s *memStore) addPost(p model.Post) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.PostID == "" {
		s.seq++
		p.PostID = fmt.Sprintf("post-%d", s.seq)
	}
	if p.Visibility == "" {
		p.Visibility = model.VisibilityPublic
	}
	s.posts[p.PostID] = &p
	return p.PostID
}

// setVote 绕过计数器直接写入投票行（模拟其他会话的写入）
func (s *memStore) setVote(postID, userID, direction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.votes[postID] == nil {
		s.votes[postID] = make(map[string]string)
	}
	s.applyLocked(postID, userID, s.votes[postID][userID], direction)
}

func (s *memStore) applyLocked(postID, userID, from, to string) {
	if s.votes[postID] == nil {
		s.votes[postID] = make(map[string]string)
	}
	if to == "" {
		delete(s.votes[postID], userID)
	} else {
		s.votes[postID][userID] = to
	}
	p := s.posts[postID]
	switch from {
	case model.VoteUp:
		p.Upvotes--
	case model.VoteDown:
		p.Downvotes--
	}
	switch to {
	case model.VoteUp:
		p.Upvotes++
	case model.VoteDown:
		p.Downvotes++
	}
}

// voters 按方向分组的投票人
func (s *memStore) voters(postID string) (up, down []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for user, dir := range s.votes[postID] {
		if dir == model.VoteUp {
			up = append(up, user)
		} else {
			down = append(down, user)
		}
	}
	sort.Strings(up)
	sort.Strings(down)
	return up, down
}

func (s *memStore) counts(postID string) repository.VoteCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.posts[postID]
	return repository.VoteCounts{Upvotes: p.Upvotes, Downvotes: p.Downvotes}
}

// ── Mock PostRepository ──

type mockPostRepo struct{ s *memStore }

func (m *mockPostRepo) Create(_ context.Context, post *model.Post) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.seq++
	post.PostID = fmt.Sprintf("post-%d", m.s.seq)
	post.CreatedAt = time.Now()
	cp := *post
	m.s.posts[post.PostID] = &cp
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.posts[id]
	if !ok || p.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPostRepo) List(_ context.Context, filter repository.PostFilter) ([]model.Post, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.Post
	for _, p := range m.s.posts {
		if p.DeletedAt.Valid {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		// 刻意不做可见性预筛，由服务层的可见性判定兜底
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PostID < result[j].PostID })
	return result, int64(len(result)), nil
}

func (m *mockPostRepo) Delete(_ context.Context, id string, deletedBy string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.posts[id]
	if !ok || p.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	p.DeletedBy = &deletedBy
	return nil
}

// ── Mock VoteRepository ──

type mockVoteRepo struct{ s *memStore }

func (m *mockVoteRepo) Get(_ context.Context, postID, userID string) (string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.votes[postID][userID], nil
}

func (m *mockVoteRepo) Transition(ctx context.Context, postID, userID, from, to string, guard func(context.Context) error) (repository.VoteCounts, error) {
	if hook := m.s.beforeTransition; hook != nil {
		hook()
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	p, ok := m.s.posts[postID]
	if !ok {
		return repository.VoteCounts{}, gorm.ErrRecordNotFound
	}
	if m.s.conflictsLeft > 0 {
		m.s.conflictsLeft--
		return repository.VoteCounts{}, pkgerrors.ErrConflict
	}
	if m.s.votes[postID][userID] != from {
		return repository.VoteCounts{}, pkgerrors.ErrConflict
	}
	if from == to {
		return repository.VoteCounts{Upvotes: p.Upvotes, Downvotes: p.Downvotes}, nil
	}
	if err := ctx.Err(); err != nil {
		return repository.VoteCounts{}, err
	}

	m.s.applyLocked(postID, userID, from, to)
	if guard != nil {
		if err := guard(ctx); err != nil {
			// 回滚
			m.s.applyLocked(postID, userID, to, from)
			return repository.VoteCounts{}, err
		}
	}
	m.s.transitions++
	return repository.VoteCounts{Upvotes: p.Upvotes, Downvotes: p.Downvotes}, nil
}

func (m *mockVoteRepo) Counts(_ context.Context, postID string) (repository.VoteCounts, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.posts[postID]
	if !ok {
		return repository.VoteCounts{}, gorm.ErrRecordNotFound
	}
	return repository.VoteCounts{Upvotes: p.Upvotes, Downvotes: p.Downvotes}, nil
}

func (m *mockVoteRepo) Voters(_ context.Context, postID string) (*repository.Voters, error) {
	up, down := m.s.voters(postID)
	return &repository.Voters{UpvotedBy: up, DownvotedBy: down}, nil
}

func (m *mockVoteRepo) ListByUser(_ context.Context, userID string, postIDs []string) (map[string]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	result := make(map[string]string)
	for _, id := range postIDs {
		if dir, ok := m.s.votes[id][userID]; ok {
			result[id] = dir
		}
	}
	return result, nil
}

func (m *mockVoteRepo) Recount(_ context.Context, postID string) (before, after repository.VoteCounts, err error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.posts[postID]
	if !ok {
		return before, after, gorm.ErrRecordNotFound
	}
	before = repository.VoteCounts{Upvotes: p.Upvotes, Downvotes: p.Downvotes}
	for _, dir := range m.s.votes[postID] {
		if dir == model.VoteUp {
			after.Upvotes++
		} else {
			after.Downvotes++
		}
	}
	p.Upvotes, p.Downvotes = after.Upvotes, after.Downvotes
	return before, after, nil
}

// ── Mock CommentRepository ──

type mockCommentRepo struct{ s *memStore }

func (m *mockCommentRepo) Create(_ context.Context, c *model.Comment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.posts[c.PostID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.s.seq++
	c.CommentID = fmt.Sprintf("comment-%d", m.s.seq)
	cp := *c
	m.s.comments[c.CommentID] = &cp
	p.CommentCount++
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.comments[id]
	if !ok || c.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCommentRepo) ListByPost(_ context.Context, postID string, _ repository.Page) ([]model.Comment, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.Comment
	for _, c := range m.s.comments {
		if c.PostID == postID && !c.DeletedAt.Valid {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CommentID < result[j].CommentID })
	return result, int64(len(result)), nil
}

func (m *mockCommentRepo) Delete(_ context.Context, comment *model.Comment, deletedBy string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.comments[comment.CommentID]
	if !ok || c.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	c.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	c.DeletedBy = &deletedBy
	if p, ok := m.s.posts[c.PostID]; ok && p.CommentCount > 0 {
		p.CommentCount--
	}
	return nil
}

// ── Mock ComplaintRepository ──

type mockComplaintRepo struct {
	mu        sync.Mutex
	anonymous map[string]*model.AnonymousComplaint
	dept      map[string]*model.DepartmentComplaint
	logs      []model.ComplaintStatusLog
	seq       int
	purged    []string

	// beforeTransition 在条件更新前调用，用于模拟并发修改
	beforeTransition func()
}

func newMockComplaintRepo() *mockComplaintRepo {
	return &mockComplaintRepo{
		anonymous: make(map[string]*model.AnonymousComplaint),
		dept:      make(map[string]*model.DepartmentComplaint),
	}
}

func (m *mockComplaintRepo) CreateAnonymous(_ context.Context, c *model.AnonymousComplaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c.ComplaintID = fmt.Sprintf("anon-%d", m.seq)
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.anonymous[c.ComplaintID] = &cp
	return nil
}

func (m *mockComplaintRepo) CreateDepartment(_ context.Context, c *model.DepartmentComplaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c.ComplaintID = fmt.Sprintf("dc-%d", m.seq)
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.dept[c.ComplaintID] = &cp
	return nil
}

func (m *mockComplaintRepo) GetAnonymous(_ context.Context, id string) (*model.AnonymousComplaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.anonymous[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockComplaintRepo) GetDepartment(_ context.Context, id string) (*model.DepartmentComplaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.dept[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockComplaintRepo) ListAnonymous(_ context.Context, filter repository.ComplaintFilter) ([]model.AnonymousComplaint, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AnonymousComplaint
	for _, c := range m.anonymous {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ComplaintID < result[j].ComplaintID })
	return result, int64(len(result)), nil
}

func (m *mockComplaintRepo) ListDepartment(_ context.Context, filter repository.ComplaintFilter) ([]model.DepartmentComplaint, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.DepartmentComplaint
	for _, c := range m.dept {
		if filter.DepartmentID != "" && c.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.SubmittedBy != "" && c.SubmittedBy != filter.SubmittedBy {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ComplaintID < result[j].ComplaintID })
	return result, int64(len(result)), nil
}

func (m *mockComplaintRepo) TransitionAnonymous(_ context.Context, c *model.AnonymousComplaint, change repository.StatusChange) error {
	if hook := m.beforeTransition; hook != nil {
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.anonymous[c.ComplaintID]
	if !ok || cur.Status != change.From || cur.Version != c.Version {
		return pkgerrors.ErrConflict
	}
	now := time.Now()
	cur.Status = change.To
	if change.Notes != "" {
		cur.ResolutionNotes = change.Notes
	}
	cur.StatusChangedAt = &now
	cur.Version++
	m.appendLog(c.ComplaintID, model.ChannelAnonymous, change, now)
	*c = *cur
	return nil
}

func (m *mockComplaintRepo) TransitionDepartment(_ context.Context, c *model.DepartmentComplaint, change repository.StatusChange) error {
	if hook := m.beforeTransition; hook != nil {
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.dept[c.ComplaintID]
	if !ok || cur.Status != change.From || cur.Version != c.Version {
		return pkgerrors.ErrConflict
	}
	now := time.Now()
	cur.Status = change.To
	if change.Notes != "" {
		cur.ResolutionNotes = change.Notes
	}
	cur.StatusChangedAt = &now
	cur.Version++
	m.appendLog(c.ComplaintID, model.ChannelDepartment, change, now)
	*c = *cur
	return nil
}

func (m *mockComplaintRepo) appendLog(id, channel string, change repository.StatusChange, now time.Time) {
	m.logs = append(m.logs, model.ComplaintStatusLog{
		ComplaintID: id,
		Channel:     channel,
		FromStatus:  change.From,
		ToStatus:    change.To,
		ActorID:     change.ActorID,
		Notes:       change.Notes,
		CreatedAt:   now,
	})
}

func (m *mockComplaintRepo) PurgeAnonymousPhone(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.anonymous[id]; ok {
		c.StudentPhone = nil
	}
	m.purged = append(m.purged, id)
	return nil
}

func (m *mockComplaintRepo) ListStatusLogs(_ context.Context, complaintID string) ([]model.ComplaintStatusLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ComplaintStatusLog
	for _, l := range m.logs {
		if l.ComplaintID == complaintID {
			result = append(result, l)
		}
	}
	return result, nil
}

// setStatus 直接修改投诉状态（模拟其他会话的并发修改）
func (m *mockComplaintRepo) setStatus(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.anonymous[id]; ok {
		c.Status = status
		c.Version++
	}
	if c, ok := m.dept[id]; ok {
		c.Status = status
		c.Version++
	}
}

// ═══════════════════════════════════════════════════════════
// 测试环境
// ═══════════════════════════════════════════════════════════

type testEnv struct {
	repo       *repository.Repository
	admins     *mockAdminRepo
	moderators *mockModeratorRepo
	depts      *mockDeptRepo
	store      *memStore
	complaints *mockComplaintRepo
}

func newTestEnv() *testEnv {
	env := &testEnv{
		admins:     newMockAdminRepo(),
		moderators: newMockModeratorRepo(),
		depts:      newMockDeptRepo(),
		store:      newMemStore(),
		complaints: newMockComplaintRepo(),
	}
	env.repo = &repository.Repository{
		Admin:      env.admins,
		Moderator:  env.moderators,
		Department: env.depts,
		Post:       &mockPostRepo{s: env.store},
		Vote:       &mockVoteRepo{s: env.store},
		Comment:    &mockCommentRepo{s: env.store},
		Complaint:  env.complaints,
	}
	return env
}

// ── Mock Notifier ──

type notifyCall struct {
	Phone   string
	Summary string
	Status  string
	Notes   string
	Message string // Alert 原文；Notify 调用时为空
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (m *mockNotifier) Notify(_ context.Context, phone, summary, status, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, notifyCall{Phone: phone, Summary: summary, Status: status, Notes: notes})
	return m.err
}

func (m *mockNotifier) Alert(_ context.Context, phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, notifyCall{Phone: phone, Message: message})
	return m.err
}

func (m *mockNotifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// ── Mock Sequencer ──

type mockSequencer struct {
	mu     sync.Mutex
	latest map[string]int64
	err    error
}

func newMockSequencer() *mockSequencer {
	return &mockSequencer{latest: make(map[string]int64)}
}

func (m *mockSequencer) Advance(_ context.Context, key string, seq int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if cur, ok := m.latest[key]; ok && cur > seq {
		return false, nil
	}
	m.latest[key] = seq
	return true, nil
}

func (m *mockSequencer) IsLatest(_ context.Context, key string, seq int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.latest[key]
	return !ok || cur <= seq, nil
}

func (m *mockSequencer) set(key string, seq int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[key] = seq
}
