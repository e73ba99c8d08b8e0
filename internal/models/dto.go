package models

import "time"

// ===== USER REQUESTS =====

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,person_name"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Photo    string `json:"photo" validate:"omitempty,url,max=500"`
}

type VerifyEmailRequest struct {
	Email            string `json:"email" validate:"required,email"`
	VerificationCode string `json:"verificationCode" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateAdminRequest struct {
	SecretKey string `json:"secretKey"`
	Name      string `json:"name" validate:"required,person_name"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Photo     string `json:"photo" validate:"omitempty,url,max=500"`
}

type ChangeRoleRequest struct {
	Role UserRole `json:"role" validate:"required,assignable_role"`
}

type RoleChangeRequest struct {
	Cum *float64 `json:"cum" validate:"required,cum_score"`
}

type UserFilters struct {
	Query  string
	Role   *UserRole
	Limit  int
	Offset int
}

// ===== COURSE REQUESTS =====

type ResourceRequest struct {
	Type ResourceType `json:"type" validate:"required,resource_type"`
	URL  string       `json:"url" validate:"required,resource_url"`
}

type SectionRequest struct {
	Title     string            `json:"title" validate:"required,min=1,max=200"`
	Resources []ResourceRequest `json:"resources" validate:"omitempty,dive"`
}

type CreateCourseRequest struct {
	Title       string           `json:"title" validate:"required,course_title"`
	Description string           `json:"description" validate:"required,course_description"`
	Tags        []string         `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
	Sections    []SectionRequest `json:"sections" validate:"omitempty,dive"`
	Instructor  string           `json:"instructor" validate:"omitempty"`
}

type AssignInstructorRequest struct {
	CourseID     string `json:"courseId" validate:"required"`
	InstructorID string `json:"instructorId"`
}

type AssignCatedraticoRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

// ===== EVENT / MESSAGE REQUESTS =====

type CreateCourseEventRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"omitempty,max=255"`
	CourseID    string    `json:"courseId" validate:"required"`
}

type UpdateCourseEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location" validate:"omitempty,max=255"`
}

type SendMessageRequest struct {
	Recipient string `json:"recipient" validate:"required"`
	Message   string `json:"message" validate:"required,min=1,max=5000"`
}

// ===== RESPONSES =====

type CourseResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Sections    []Section `json:"sections"`
	Roster
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCourseResponse flattens a course and its memberships into the wire shape
func NewCourseResponse(course *Course) *CourseResponse {
	tags := []string(course.Tags)
	if tags == nil {
		tags = []string{}
	}
	sections := course.Sections
	if sections == nil {
		sections = []Section{}
	}
	return &CourseResponse{
		ID:          course.ID,
		Title:       course.Title,
		Description: course.Description,
		Tags:        tags,
		Sections:    sections,
		Roster:      BuildRoster(course.Memberships),
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

// CourseDetailResponse is a course with its roster populated as user summaries
type CourseDetailResponse struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Tags         []string      `json:"tags"`
	Sections     []Section     `json:"sections"`
	Instructor   *UserSummary  `json:"instructor"`
	Catedraticos []UserSummary `json:"catedraticos"`
	Students     []UserSummary `json:"students"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type AssignInstructorResult struct {
	Course     *CourseResponse `json:"course"`
	WasStudent bool            `json:"wasStudent"`
}

type LoginResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PendingRoleRequest struct {
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Cum         float64    `json:"cum"`
	RequestDate *time.Time `json:"request_date"`
}
