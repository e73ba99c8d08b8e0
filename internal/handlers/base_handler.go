package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

const MsgInternalError = "Error interno del servidor."

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// MessageResponse pairs a confirmation message with an optional payload
type MessageResponse struct {
	Message string `json:"message"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.GetLogger(c, h.logger)
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	h.log(c).Info(msg, append(args, "method", c.Request.Method, "path", c.FullPath())...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	h.log(c).Error(msg, append(args, "error", err)...)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: details})
}

// handleServiceError maps service errors onto HTTP statuses. Anything the
// services did not classify is logged and answered with a generic 500.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		ruleErr       *services.BusinessRuleError
		notFoundErr   *services.NotFoundError
		permissionErr *services.PermissionError
		authErr       *services.AuthenticationError
	)

	switch {
	case errors.As(err, &validationErr):
		h.RespondWithError(c, http.StatusBadRequest, validationErr.Message, validationErr.Errors)
	case errors.As(err, &ruleErr):
		h.RespondWithError(c, http.StatusBadRequest, ruleErr.Message, gin.H{
			"rule":    ruleErr.Rule,
			"context": ruleErr.Context,
		})
	case errors.As(err, &notFoundErr):
		h.RespondWithError(c, http.StatusNotFound, notFoundErr.Message, nil)
	case errors.As(err, &permissionErr):
		h.RespondWithError(c, http.StatusForbidden, permissionErr.Message, nil)
	case errors.As(err, &authErr):
		h.RespondWithError(c, http.StatusUnauthorized, authErr.Message, nil)
	case errors.Is(err, services.ErrNotFound):
		h.RespondWithError(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrValidationFailed):
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, services.ErrForbidden):
		h.RespondWithError(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, services.ErrUnauthorized):
		h.RespondWithError(c, http.StatusUnauthorized, err.Error(), nil)
	default:
		h.LogError(c, err, "Unhandled service error")
		h.RespondWithError(c, http.StatusInternalServerError, MsgInternalError, nil)
	}
}

// bindJSON decodes the body into req and answers 400 on malformed input
func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Datos de solicitud inválidos", err.Error())
		return false
	}
	return true
}

// currentUserID reads the id set by the auth middleware
func (h *BaseHandler) currentUserID(c *gin.Context) (string, bool) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		h.RespondWithError(c, http.StatusUnauthorized, MsgNoToken, nil)
		return "", false
	}
	return userID, true
}
