package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
)

// memStore is the state behind the in-memory repository
type memStore struct {
	users        map[string]models.User
	roleRequests map[string]models.RoleRequest
	courses      map[string]models.Course
	sections     []models.Section
	memberships  []models.CourseMembership
	events       map[string]models.CourseEvent
	messages     []models.Message
	nextSection  uint
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]models.User{},
		roleRequests: map[string]models.RoleRequest{},
		courses:      map[string]models.Course{},
		events:       map[string]models.CourseEvent{},
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.roleRequests {
		c.roleRequests[k] = v
	}
	for k, v := range s.courses {
		c.courses[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	c.sections = append([]models.Section(nil), s.sections...)
	c.memberships = append([]models.CourseMembership(nil), s.memberships...)
	c.messages = append([]models.Message(nil), s.messages...)
	c.nextSection = s.nextSection
	return c
}

type memShared struct {
	txMu   sync.Mutex
	mu     sync.Mutex
	store  *memStore
	failOn map[string]error
}

// memRepository is a repositories.Repository kept in memory. Transactions are
// serialized and a failed transaction restores the snapshot taken when it began.
type memRepository struct {
	shared *memShared
	inTx   bool
}

func newMemRepository() *memRepository {
	return &memRepository{shared: &memShared{store: newMemStore(), failOn: map[string]error{}}}
}

// FailOn makes the named operation return err, e.g. "membership.add"
func (r *memRepository) FailOn(op string, err error) {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	r.shared.failOn[op] = err
}

func (r *memRepository) lock() (*memStore, func()) {
	r.shared.mu.Lock()
	return r.shared.store, r.shared.mu.Unlock
}

func (r *memRepository) fail(op string) error {
	if err, ok := r.shared.failOn[op]; ok {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return nil
}

func (r *memRepository) User() repositories.UserRepository               { return memUsers{r} }
func (r *memRepository) RoleRequest() repositories.RoleRequestRepository { return memRoleRequests{r} }
func (r *memRepository) Course() repositories.CourseRepository           { return memCourses{r} }
func (r *memRepository) Section() repositories.SectionRepository         { return memSections{r} }
func (r *memRepository) Membership() repositories.MembershipRepository   { return memMemberships{r} }
func (r *memRepository) CourseEvent() repositories.CourseEventRepository { return memEvents{r} }
func (r *memRepository) Message() repositories.MessageRepository         { return memMessages{r} }

func (r *memRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	r.shared.txMu.Lock()
	defer r.shared.txMu.Unlock()

	r.shared.mu.Lock()
	snapshot := r.shared.store.clone()
	r.shared.mu.Unlock()

	if err := fn(&memRepository{shared: r.shared, inTx: true}); err != nil {
		r.shared.mu.Lock()
		r.shared.store = snapshot
		r.shared.mu.Unlock()
		return err
	}
	return nil
}

func (r *memRepository) Ping(ctx context.Context) error { return nil }
func (r *memRepository) Close() error                   { return nil }

func notFound(op string) error {
	return fmt.Errorf("%s failed: %w", op, repositories.ErrNotFound)
}

// ===== USERS =====

type memUsers struct{ r *memRepository }

func (m memUsers) Create(ctx context.Context, user *models.User) error {
	s, unlock := m.r.lock()
	defer unlock()
	if err := m.r.fail("user.create"); err != nil {
		return err
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("create user failed: %w", repositories.ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Photo == "" {
		user.Photo = models.DefaultPhotoURL
	}
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (m memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	s, unlock := m.r.lock()
	defer unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("get user by id")
	}
	return &u, nil
}

func (m memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s, unlock := m.r.lock()
	defer unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, notFound("get user by email")
}

func (m memUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	s, unlock := m.r.lock()
	defer unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

func (m memUsers) Update(ctx context.Context, user *models.User) error {
	s, unlock := m.r.lock()
	defer unlock()
	if err := m.r.fail("user.update"); err != nil {
		return err
	}
	if _, ok := s.users[user.ID]; !ok {
		return notFound("update user")
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (m memUsers) Delete(ctx context.Context, id string) error {
	s, unlock := m.r.lock()
	defer unlock()
	if _, ok := s.users[id]; !ok {
		return notFound("delete user")
	}
	delete(s.users, id)
	return nil
}

func (m memUsers) List(ctx context.Context, filters models.UserFilters) ([]*models.User, int64, error) {
	s, unlock := m.r.lock()
	defer unlock()

	var all []*models.User
	for _, u := range s.users {
		u := u
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		if q := strings.ToLower(filters.Query); q != "" &&
			!strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(u.Email, q) {
			continue
		}
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })

	total := int64(len(all))
	if filters.Offset >= len(all) {
		return []*models.User{}, total, nil
	}
	all = all[filters.Offset:]
	if filters.Limit > 0 && filters.Limit < len(all) {
		all = all[:filters.Limit]
	}
	return all, total, nil
}

func (m memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m memUsers) LockIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	if err := m.r.fail("user.lock_by_role"); err != nil {
		return nil, err
	}
	s, unlock := m.r.lock()
	defer unlock()
	var ids []string
	for _, u := range s.users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (m memUsers) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s, unlock := m.r.lock()
	defer unlock()
	var n int64
	for id, u := range s.users {
		if !u.IsVerified && u.VerificationExpiresAt != nil && u.VerificationExpiresAt.Before(cutoff) {
			delete(s.users, id)
			n++
		}
	}
	return n, nil
}

// ===== ROLE REQUESTS =====

type memRoleRequests struct{ r *memRepository }

func (m memRoleRequests) GetByUserID(ctx context.Context, userID string) (*models.RoleRequest, error) {
	s, unlock := m.r.lock()
	defer unlock()
	rr, ok := s.roleRequests[userID]
	if !ok {
		return nil, notFound("get role request")
	}
	return &rr, nil
}

func (m memRoleRequests) Save(ctx context.Context, request *models.RoleRequest) error {
	s, unlock := m.r.lock()
	defer unlock()
	if err := m.r.fail("role_request.save"); err != nil {
		return err
	}
	stored := *request
	stored.User = nil
	s.roleRequests[request.UserID] = stored
	return nil
}

func (m memRoleRequests) ListByStatus(ctx context.Context, status models.RoleRequestStatus) ([]*models.RoleRequest, error) {
	s, unlock := m.r.lock()
	defer unlock()
	var out []*models.RoleRequest
	for _, rr := range s.roleRequests {
		if rr.Status != status {
			continue
		}
		rr := rr
		if u, ok := s.users[rr.UserID]; ok {
			rr.User = &u
		}
		out = append(out, &rr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m memRoleRequests) DeleteByUser(ctx context.Context, userID string) error {
	s, unlock := m.r.lock()
	defer unlock()
	delete(s.roleRequests, userID)
	return nil
}

// ===== COURSES =====

type memCourses struct{ r *memRepository }

func (m memCourses) Create(ctx context.Context, course *models.Course) error {
	s, unlock := m.r.lock()
	defer unlock()
	if err := m.r.fail("course.create"); err != nil {
		return err
	}
	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	stored := *course
	stored.Sections = nil
	stored.Memberships = nil
	s.courses[course.ID] = stored
	return nil
}

// withRoster attaches sections and memberships; callers hold the lock
func withRoster(s *memStore, c models.Course) *models.Course {
	c.Sections = []models.Section{}
	for _, sec := range s.sections {
		if sec.CourseID == c.ID {
			c.Sections = append(c.Sections, sec)
		}
	}
	sort.SliceStable(c.Sections, func(i, j int) bool { return c.Sections[i].Order < c.Sections[j].Order })

	c.Memberships = []models.CourseMembership{}
	for _, mem := range s.memberships {
		if mem.CourseID == c.ID {
			c.Memberships = append(c.Memberships, mem)
		}
	}
	return &c
}

func (m memCourses) GetByID(ctx context.Context, id string) (*models.Course, error) {
	s, unlock := m.r.lock()
	defer unlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, notFound("get course by id")
	}
	return withRoster(s, c), nil
}

func (m memCourses) LockByID(ctx context.Context, id string) (*models.Course, error) {
	s, unlock := m.r.lock()
	defer unlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, notFound("lock course")
	}
	return &c, nil
}

func (m memCourses) GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	s, unlock := m.r.lock()
	defer unlock()
	out := []*models.Course{}
	for _, id := range ids {
		if c, ok := s.courses[id]; ok {
			out = append(out, withRoster(s, c))
		}
	}
	return out, nil
}

func (m memCourses) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	s, unlock := m.r.lock()
	defer unlock()
	out := []*models.Course{}
	for _, c := range s.courses {
		if filters.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(filters.Search)) {
			continue
		}
		out = append(out, withRoster(s, c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, int64(len(out)), nil
}

func (m memCourses) Update(ctx context.Context, course *models.Course) error {
	s, unlock := m.r.lock()
	defer unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return notFound("update course")
	}
	stored := *course
	stored.Sections = nil
	stored.Memberships = nil
	s.courses[course.ID] = stored
	return nil
}

func (m memCourses) Delete(ctx context.Context, id string) error {
	s, unlock := m.r.lock()
	defer unlock()
	if err := m.r.fail("course.delete"); err != nil {
		return err
	}
	if _, ok := s.courses[id]; !ok {
		return notFound("delete course")
	}
	delete(s.courses, id)
	return nil
}

// ===== SECTIONS =====

type memSections struct{ r *memRepository }

func (m memSections) Create(ctx context.Context, section *models.Section) error {
	s, unlock := m.r.lock()
	defer unlock()
	if err := m.r.fail("section.create"); err != nil {
		return err
	}
	s.nextSection++
	section.ID = s.nextSection
	section.CreatedAt = time.Now()
	s.sections = append(s.sections, *section)
	return nil
}

func (m memSections) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	s, unlock := m.r.lock()
	defer unlock()
	var n int64
	for _, sec := range s.sections {
		if sec.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (m memSections) ListByCourse(ctx context.Context, courseID string) ([]models.Section, error) {
	s, unlock := m.r.lock()
	defer unlock()
	return withRoster(s, models.Course{ID: courseID}).Sections, nil
}

func (m memSections) DeleteByCourse(ctx context.Context, courseID string) error {
	s, unlock := m.r.lock()
	defer unlock()
	kept := s.sections[:0:0]
	for _, sec := range s.sections {
		if sec.CourseID != courseID {
			kept = append(kept, sec)
		}
	}
	s.sections = kept
	return nil
}

// ===== MEMBERSHIPS =====

type memMemberships struct{ r *memRepository }

func (m memMemberships) Add(ctx context.Context, membership *models.CourseMembership) error {
	s, unlock := m.r.lock()
	defer unlock()
	if err := m.r.fail("membership.add"); err != nil {
		return err
	}
	for _, existing := range s.memberships {
		if existing.CourseID != membership.CourseID {
			continue
		}
		sameRow := existing.UserID == membership.UserID && existing.Role == membership.Role
		secondInstructor := existing.Role == models.MembershipInstructor && membership.Role == models.MembershipInstructor
		if sameRow || secondInstructor {
			return fmt.Errorf("add membership failed: %w", repositories.ErrDuplicate)
		}
	}
	membership.CreatedAt = time.Now()
	stored := *membership
	stored.User = nil
	s.memberships = append(s.memberships, stored)
	return nil
}

func (m memMemberships) Remove(ctx context.Context, courseID, userID string, role models.MembershipRole) (bool, error) {
	s, unlock := m.r.lock()
	defer unlock()
	if err := m.r.fail("membership.remove"); err != nil {
		return false, err
	}
	for i, existing := range s.memberships {
		if existing.CourseID == courseID && existing.UserID == userID && existing.Role == role {
			s.memberships = append(s.memberships[:i:i], s.memberships[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m memMemberships) Exists(ctx context.Context, courseID, userID string, role models.MembershipRole) (bool, error) {
	s, unlock := m.r.lock()
	defer unlock()
	for _, existing := range s.memberships {
		if existing.CourseID == courseID && existing.UserID == userID && existing.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (m memMemberships) GetInstructor(ctx context.Context, courseID string) (*models.CourseMembership, error) {
	s, unlock := m.r.lock()
	defer unlock()
	for _, existing := range s.memberships {
		if existing.CourseID == courseID && existing.Role == models.MembershipInstructor {
			existing := existing
			return &existing, nil
		}
	}
	return nil, notFound("get instructor")
}

func (m memMemberships) ListByCourse(ctx context.Context, courseID string) ([]models.CourseMembership, error) {
	s, unlock := m.r.lock()
	defer unlock()
	out := []models.CourseMembership{}
	for _, existing := range s.memberships {
		if existing.CourseID == courseID {
			if u, ok := s.users[existing.UserID]; ok {
				existing.User = &u
			}
			out = append(out, existing)
		}
	}
	return out, nil
}

func (m memMemberships) ListByUser(ctx context.Context, userID string) ([]models.CourseMembership, error) {
	s, unlock := m.r.lock()
	defer unlock()
	out := []models.CourseMembership{}
	for _, existing := range s.memberships {
		if existing.UserID == userID {
			out = append(out, existing)
		}
	}
	return out, nil
}

func (m memMemberships) deleteWhere(match func(models.CourseMembership) bool) int64 {
	s, unlock := m.r.lock()
	defer unlock()
	kept := s.memberships[:0:0]
	var n int64
	for _, existing := range s.memberships {
		if match(existing) {
			n++
			continue
		}
		kept = append(kept, existing)
	}
	s.memberships = kept
	return n
}

func (m memMemberships) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	return m.deleteWhere(func(cm models.CourseMembership) bool { return cm.CourseID == courseID }), nil
}

func (m memMemberships) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return m.deleteWhere(func(cm models.CourseMembership) bool { return cm.UserID == userID }), nil
}

// ===== COURSE EVENTS =====

type memEvents struct{ r *memRepository }

func (m memEvents) Create(ctx context.Context, event *models.CourseEvent) error {
	s, unlock := m.r.lock()
	defer unlock()
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	s.events[event.ID] = *event
	return nil
}

func (m memEvents) GetByID(ctx context.Context, id string) (*models.CourseEvent, error) {
	s, unlock := m.r.lock()
	defer unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, notFound("get course event")
	}
	return &e, nil
}

func (m memEvents) Update(ctx context.Context, event *models.CourseEvent) error {
	s, unlock := m.r.lock()
	defer unlock()
	if _, ok := s.events[event.ID]; !ok {
		return notFound("update course event")
	}
	s.events[event.ID] = *event
	return nil
}

func (m memEvents) Delete(ctx context.Context, id string) error {
	s, unlock := m.r.lock()
	defer unlock()
	if _, ok := s.events[id]; !ok {
		return notFound("delete course event")
	}
	delete(s.events, id)
	return nil
}

func (m memEvents) filter(match func(models.CourseEvent) bool) []*models.CourseEvent {
	s, unlock := m.r.lock()
	defer unlock()
	out := []*models.CourseEvent{}
	for _, e := range s.events {
		if match(e) {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (m memEvents) List(ctx context.Context) ([]*models.CourseEvent, error) {
	return m.filter(func(models.CourseEvent) bool { return true }), nil
}

func (m memEvents) ListByCourses(ctx context.Context, courseIDs []string) ([]*models.CourseEvent, error) {
	set := map[string]bool{}
	for _, id := range courseIDs {
		set[id] = true
	}
	return m.filter(func(e models.CourseEvent) bool { return set[e.CourseID] }), nil
}

func (m memEvents) DeleteByCourse(ctx context.Context, courseID string) error {
	s, unlock := m.r.lock()
	defer unlock()
	for id, e := range s.events {
		if e.CourseID == courseID {
			delete(s.events, id)
		}
	}
	return nil
}

// ===== MESSAGES =====

type memMessages struct{ r *memRepository }

func (m memMessages) Create(ctx context.Context, message *models.Message) error {
	s, unlock := m.r.lock()
	defer unlock()
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()
	message.UpdatedAt = message.CreatedAt
	s.messages = append(s.messages, *message)
	return nil
}

func (m memMessages) Conversation(ctx context.Context, userID, contactID string) ([]*models.Message, error) {
	s, unlock := m.r.lock()
	defer unlock()
	out := []*models.Message{}
	for _, msg := range s.messages {
		if (msg.SenderID == userID && msg.RecipientID == contactID) ||
			(msg.SenderID == contactID && msg.RecipientID == userID) {
			msg := msg
			out = append(out, &msg)
		}
	}
	return out, nil
}
