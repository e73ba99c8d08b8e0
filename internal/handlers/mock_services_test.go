package handlers

import (
	"bytes"
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/services"
)

// ── Mock MembershipCoordinator ──

type mockMembership struct {
	enrollResult  *models.CourseResponse
	enrollErr     error
	enrollCalls   []string
	assignResult  *models.AssignInstructorResult
	assignErr     error
	assignCourse  string
	assignUser    string
	catedResult   *models.CourseResponse
	catedErr      error
	leaveErr      error
	leaveUser     string
	removeResult  *models.CourseResponse
	removeErr     error
	removedUser   string
	deleteErr     error
	sectionResult *models.CourseResponse
	sectionErr    error
}

func (m *mockMembership) Enroll(_ context.Context, courseID, userID string) (*models.CourseResponse, error) {
	m.enrollCalls = append(m.enrollCalls, courseID+"/"+userID)
	return m.enrollResult, m.enrollErr
}
func (m *mockMembership) AssignInstructor(_ context.Context, courseID, instructorID string) (*models.AssignInstructorResult, error) {
	m.assignCourse, m.assignUser = courseID, instructorID
	return m.assignResult, m.assignErr
}
func (m *mockMembership) AssignCatedratico(_ context.Context, _, _ string) (*models.CourseResponse, error) {
	return m.catedResult, m.catedErr
}
func (m *mockMembership) LeaveCourse(_ context.Context, _, userID string) error {
	m.leaveUser = userID
	return m.leaveErr
}
func (m *mockMembership) RemoveUserFromCourse(_ context.Context, _, userID string) (*models.CourseResponse, error) {
	m.removedUser = userID
	return m.removeResult, m.removeErr
}
func (m *mockMembership) DeleteCourse(_ context.Context, _ string) error {
	return m.deleteErr
}
func (m *mockMembership) AddSection(_ context.Context, _ string, _ *models.SectionRequest) (*models.CourseResponse, error) {
	return m.sectionResult, m.sectionErr
}

// ── Mock CourseService ──

type mockCourseService struct {
	createResult *models.CourseResponse
	createErr    error
	createdBy    string
	listResult   []*models.CourseResponse
	listErr      error
	listSearch   string
	getResult    *models.CourseDetailResponse
	getErr       error
	userResult   []*models.CourseResponse
	userErr      error
	exportBuf    *bytes.Buffer
	exportName   string
	exportErr    error
}

func (m *mockCourseService) Create(_ context.Context, actorID string, _ *models.CreateCourseRequest) (*models.CourseResponse, error) {
	m.createdBy = actorID
	return m.createResult, m.createErr
}
func (m *mockCourseService) List(_ context.Context, search string) ([]*models.CourseResponse, error) {
	m.listSearch = search
	return m.listResult, m.listErr
}
func (m *mockCourseService) GetByID(_ context.Context, _ string) (*models.CourseDetailResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockCourseService) UserCourses(_ context.Context, _ string) ([]*models.CourseResponse, error) {
	return m.userResult, m.userErr
}
func (m *mockCourseService) CoursesAsStudent(_ context.Context, _ string) ([]*models.CourseResponse, error) {
	return m.userResult, m.userErr
}
func (m *mockCourseService) ExportRoster(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.exportBuf, m.exportName, m.exportErr
}

// ── Mock UserService ──

type mockUserService struct {
	registerErr   error
	verifyErr     error
	loginResult   *models.LoginResponse
	loginErr      error
	adminResult   *models.User
	adminErr      error
	profileResult *models.User
	profileErr    error
	listResult    []*models.User
	listTotal     int64
	listErr       error
	listFilters   models.UserFilters
	roleResult    *models.User
	roleErr       error
	deleteErr     error
	deleteActor   string
}

func (m *mockUserService) Register(_ context.Context, _ *models.RegisterRequest) (*models.User, error) {
	return &models.User{}, m.registerErr
}
func (m *mockUserService) VerifyEmail(_ context.Context, _ *models.VerifyEmailRequest) (*models.User, error) {
	return &models.User{}, m.verifyErr
}
func (m *mockUserService) Login(_ context.Context, _ *models.LoginRequest) (*models.LoginResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockUserService) CreateAdmin(_ context.Context, _ *models.CreateAdminRequest) (*models.User, error) {
	return m.adminResult, m.adminErr
}
func (m *mockUserService) Profile(_ context.Context, _ string) (*models.User, error) {
	return m.profileResult, m.profileErr
}
func (m *mockUserService) List(_ context.Context, filters models.UserFilters) ([]*models.User, int64, error) {
	m.listFilters = filters
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockUserService) ChangeRole(_ context.Context, _, _ string, _ *models.ChangeRoleRequest) (*models.User, error) {
	return m.roleResult, m.roleErr
}
func (m *mockUserService) Delete(_ context.Context, actorID, _ string) error {
	m.deleteActor = actorID
	return m.deleteErr
}

// ── Mock RoleRequestService ──

type mockRoleRequestService struct {
	submitResult  *models.RoleRequest
	submitErr     error
	reviewResult  *models.RoleRequest
	reviewErr     error
	reviewed      string
	pendingResult []models.PendingRoleRequest
	pendingErr    error
}

func (m *mockRoleRequestService) Submit(_ context.Context, _ string, _ *models.RoleChangeRequest) (*models.RoleRequest, error) {
	return m.submitResult, m.submitErr
}
func (m *mockRoleRequestService) Approve(_ context.Context, _, userID string) (*models.RoleRequest, error) {
	m.reviewed = "approve:" + userID
	return m.reviewResult, m.reviewErr
}
func (m *mockRoleRequestService) Reject(_ context.Context, _, userID string) (*models.RoleRequest, error) {
	m.reviewed = "reject:" + userID
	return m.reviewResult, m.reviewErr
}
func (m *mockRoleRequestService) ListPending(_ context.Context, _ string) ([]models.PendingRoleRequest, error) {
	return m.pendingResult, m.pendingErr
}

// ── Mock CourseEventService ──

type mockEventService struct {
	createResult *models.CourseEvent
	createErr    error
	updateResult *models.CourseEvent
	updateErr    error
	deleteErr    error
	listResult   []*models.CourseEvent
	listErr      error
	listedFor    string
}

func (m *mockEventService) Create(_ context.Context, _ *models.CreateCourseEventRequest) (*models.CourseEvent, error) {
	return m.createResult, m.createErr
}
func (m *mockEventService) Update(_ context.Context, _ string, _ *models.UpdateCourseEventRequest) (*models.CourseEvent, error) {
	return m.updateResult, m.updateErr
}
func (m *mockEventService) Delete(_ context.Context, _ string) error {
	return m.deleteErr
}
func (m *mockEventService) ListAll(_ context.Context) ([]*models.CourseEvent, error) {
	return m.listResult, m.listErr
}
func (m *mockEventService) ListByCourse(_ context.Context, courseID string) ([]*models.CourseEvent, error) {
	m.listedFor = courseID
	return m.listResult, m.listErr
}
func (m *mockEventService) ListForUser(_ context.Context, userID string) ([]*models.CourseEvent, error) {
	m.listedFor = userID
	return m.listResult, m.listErr
}

// ── Mock MessageService ──

type mockMessageService struct {
	sendResult   *models.Message
	sendErr      error
	sender       string
	convResult   []*models.Message
	convErr      error
	convCaller   string
	stream       chan *message.Message
	subscribeErr error
}

func (m *mockMessageService) Send(_ context.Context, senderID string, _ *models.SendMessageRequest) (*models.Message, error) {
	m.sender = senderID
	return m.sendResult, m.sendErr
}
func (m *mockMessageService) Conversation(_ context.Context, callerID, _, _ string) ([]*models.Message, error) {
	m.convCaller = callerID
	return m.convResult, m.convErr
}
func (m *mockMessageService) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}
	return m.stream, nil
}

// ── Mock ServiceManager ──

type mockServiceManager struct {
	membership *mockMembership
	course     *mockCourseService
	user       *mockUserService
	roles      *mockRoleRequestService
	events     *mockEventService
	messages   *mockMessageService
	healthErr  error
}

func newMockServiceManager() *mockServiceManager {
	return &mockServiceManager{
		membership: &mockMembership{},
		course:     &mockCourseService{},
		user:       &mockUserService{},
		roles:      &mockRoleRequestService{},
		events:     &mockEventService{},
		messages:   &mockMessageService{},
	}
}

func (m *mockServiceManager) Membership() services.MembershipCoordinator { return m.membership }
func (m *mockServiceManager) Course() services.CourseService             { return m.course }
func (m *mockServiceManager) User() services.UserService                 { return m.user }
func (m *mockServiceManager) RoleRequest() services.RoleRequestService   { return m.roles }
func (m *mockServiceManager) CourseEvent() services.CourseEventService   { return m.events }
func (m *mockServiceManager) Message() services.MessageService           { return m.messages }

func (m *mockServiceManager) Initialize(_ context.Context) error  { return nil }
func (m *mockServiceManager) HealthCheck(_ context.Context) error { return m.healthErr }
func (m *mockServiceManager) Shutdown(_ context.Context) error    { return nil }
