package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

const MsgEventDeleted = "Evento eliminado exitosamente"

type EventHandler struct {
	BaseHandler
	eventService services.CourseEventService
}

func NewEventHandler(eventService services.CourseEventService, logger utils.Logger) *EventHandler {
	return &EventHandler{
		BaseHandler:  NewBaseHandler(logger),
		eventService: eventService,
	}
}

// CreateEvent schedules an event for a course
// @Summary Create course event
// @Tags events
// @Accept json
// @Produce json
// @Param event body models.CreateCourseEventRequest true "Event data"
// @Success 201 {object} models.CourseEvent
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /events/events [post]
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req models.CreateCourseEventRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating course event", "course_id", req.CourseID)

	event, err := h.eventService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// UpdateEvent patches the fields present in the body
// @Router /events/events/{eventId} [put]
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req models.UpdateCourseEventRequest
	if !h.bindJSON(c, &req) {
		return
	}
	eventID := c.Param("eventId")

	h.LogRequest(c, "Updating course event", "event_id", eventID)

	event, err := h.eventService.Update(c.Request.Context(), eventID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// @Router /events/events/{eventId} [delete]
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID := c.Param("eventId")
	h.LogRequest(c, "Deleting course event", "event_id", eventID)

	if err := h.eventService.Delete(c.Request.Context(), eventID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: MsgEventDeleted})
}

// @Router /events/events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.eventService.ListAll(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// @Router /events/events/course/{courseId} [get]
func (h *EventHandler) ListCourseEvents(c *gin.Context) {
	events, err := h.eventService.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// ListUserEvents returns the events of the courses the caller studies in
// @Router /events/events/user [get]
func (h *EventHandler) ListUserEvents(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	events, err := h.eventService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}
