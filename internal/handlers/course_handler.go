package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

const (
	MsgCourseCreated      = "Curso creado exitosamente."
	MsgEnrolled           = "Inscripción exitosa al curso"
	MsgCatedraticoAdded   = "Catedrático asignado exitosamente."
	MsgCourseIDRequired   = "El ID del curso es requerido"
	MsgInstructorRequired = "El ID del instructor es requerido"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// CourseHandler serves course reads and every membership change. Writes to
// the roster go through the membership coordinator.
type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
	membership    services.MembershipCoordinator
}

func NewCourseHandler(
	courseService services.CourseService,
	membership services.MembershipCoordinator,
	logger utils.Logger,
) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
		membership:    membership,
	}
}

// CreateCourse creates a course with its sections and instructor
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param course body models.CreateCourseRequest true "Course data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses/create [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	actorID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating course", "title", req.Title)

	course, err := h.courseService.Create(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": MsgCourseCreated, "course": course})
}

// ListCourses lists courses, optionally filtered by title
// @Param search query string false "Title substring"
// @Router /courses/courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseService.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// GetCourse returns a course with its roster populated
// @Router /courses/courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// ExportRoster downloads the course members as a spreadsheet
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /courses/courses/{id}/roster/export [get]
func (h *CourseHandler) ExportRoster(c *gin.Context) {
	courseID := c.Param("id")
	h.LogRequest(c, "Exporting course roster", "course_id", courseID)

	buf, filename, err := h.courseService.ExportRoster(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// UserCourses lists every course the caller belongs to
// @Router /courses/user-courses [get]
func (h *CourseHandler) UserCourses(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	courses, err := h.courseService.UserCourses(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// CoursesAsStudent lists the courses the caller is enrolled in as a student
// @Router /courses/InstructorCoursesAsStudent [get]
func (h *CourseHandler) CoursesAsStudent(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	courses, err := h.courseService.CoursesAsStudent(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// ===== MEMBERSHIP =====

// Enroll adds the caller to the course as a student
// @Router /courses/enroll/{courseId} [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	courseID := c.Param("courseId")

	h.LogRequest(c, "Enrolling in course", "course_id", courseID, "user_id", userID)

	course, err := h.membership.Enroll(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgEnrolled, "course": course})
}

// AssignInstructor makes a user the course instructor. The instructor id
// comes from the path when present, otherwise from the body.
// @Param body body models.AssignInstructorRequest true "Course and instructor"
// @Router /courses/assignToInstructor [post]
// @Router /courses/assign-instructor/{instructorId} [patch]
func (h *CourseHandler) AssignInstructor(c *gin.Context) {
	var req models.AssignInstructorRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if id := c.Param("instructorId"); id != "" {
		req.InstructorID = id
	}

	if req.CourseID == "" {
		h.RespondWithError(c, http.StatusBadRequest, MsgCourseIDRequired, nil)
		return
	}
	if req.InstructorID == "" {
		h.RespondWithError(c, http.StatusBadRequest, MsgInstructorRequired, nil)
		return
	}

	h.LogRequest(c, "Assigning instructor", "course_id", req.CourseID, "instructor_id", req.InstructorID)

	result, err := h.membership.AssignInstructor(c.Request.Context(), req.CourseID, req.InstructorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	message := services.MsgInstructorAssigned
	if result.WasStudent {
		message = services.MsgInstructorAssignedMoved
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "course": result.Course})
}

// AssignCatedratico adds a catedrático to the course
// @Param body body models.AssignCatedraticoRequest true "Course"
// @Router /courses/assignCatedratico/{catedraticoId} [patch]
func (h *CourseHandler) AssignCatedratico(c *gin.Context) {
	var req models.AssignCatedraticoRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.CourseID == "" {
		h.RespondWithError(c, http.StatusBadRequest, MsgCourseIDRequired, nil)
		return
	}
	catedraticoID := c.Param("catedraticoId")

	h.LogRequest(c, "Assigning catedratico", "course_id", req.CourseID, "catedratico_id", catedraticoID)

	course, err := h.membership.AssignCatedratico(c.Request.Context(), req.CourseID, catedraticoID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgCatedraticoAdded, "course": course})
}

// LeaveCourse removes the caller's student and catedrático memberships
// @Router /courses/remove-user/{courseId} [delete]
func (h *CourseHandler) LeaveCourse(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	courseID := c.Param("courseId")

	h.LogRequest(c, "Leaving course", "course_id", courseID, "user_id", userID)

	if err := h.membership.LeaveCourse(c.Request.Context(), courseID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: services.MsgUserLeftCourse})
}

// RemoveUser takes another user out of the course
// @Router /courses/{courseId}/users/{userId} [delete]
func (h *CourseHandler) RemoveUser(c *gin.Context) {
	courseID := c.Param("courseId")
	userID := c.Param("userId")

	h.LogRequest(c, "Removing user from course", "course_id", courseID, "user_id", userID)

	course, err := h.membership.RemoveUserFromCourse(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": services.MsgUserLeftCourse, "course": course})
}

// DeleteCourse deletes the course and everything hanging off it
// @Router /courses/delete/{courseId} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	courseID := c.Param("courseId")
	if courseID == "" {
		h.RespondWithError(c, http.StatusBadRequest, MsgCourseIDRequired, nil)
		return
	}

	h.LogRequest(c, "Deleting course", "course_id", courseID)

	if err := h.membership.DeleteCourse(c.Request.Context(), courseID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: services.MsgCourseDeleted})
}

// AddSection appends a section to the course
// @Param section body models.SectionRequest true "Section"
// @Router /courses/{courseId}/sections [post]
func (h *CourseHandler) AddSection(c *gin.Context) {
	var req models.SectionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	courseID := c.Param("courseId")

	course, err := h.membership.AddSection(c.Request.Context(), courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}
