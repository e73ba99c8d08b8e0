package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

const (
	MsgRegistered      = "Usuario registrado, por favor revisa tu correo para verificar tu cuenta."
	MsgEmailVerified   = "Correo verificado exitosamente."
	MsgLoggedIn        = "Inicio de sesión exitoso"
	MsgAdminCreated    = "Admin creado exitosamente."
	MsgRequestSent     = "Solicitud enviada con éxito."
	MsgRequestApproved = "Solicitud aprobada con éxito."
	MsgRequestRejected = "Solicitud rechazada."
	MsgUserDeleted     = "Usuario eliminado con éxito."
	MsgRoleUpdated     = "Rol actualizado correctamente."
)

type UserHandler struct {
	BaseHandler
	userService        services.UserService
	roleRequestService services.RoleRequestService
}

func NewUserHandler(
	userService services.UserService,
	roleRequestService services.RoleRequestService,
	logger utils.Logger,
) *UserHandler {
	return &UserHandler{
		BaseHandler:        NewBaseHandler(logger),
		userService:        userService,
		roleRequestService: roleRequestService,
	}
}

// Register creates an unverified student account and mails the verification code
// @Summary Register
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.RegisterRequest true "Account data"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Registering user", "email", req.Email)

	if _, err := h.userService.Register(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: MsgRegistered})
}

// VerifyEmail confirms an account with the mailed code
// @Summary Verify email
// @Tags users
// @Accept json
// @Produce json
// @Param body body models.VerifyEmailRequest true "Email and code"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/verify-email [post]
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	var req models.VerifyEmailRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if _, err := h.userService.VerifyEmail(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: MsgEmailVerified})
}

// Login exchanges credentials for an access token
// @Summary Login
// @Tags users
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    MsgLoggedIn,
		"user":       res.User,
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
	})
}

// CreateAdmin bootstraps an administrator guarded by the shared secret key
// @Router /users/create-admin [post]
func (h *UserHandler) CreateAdmin(c *gin.Context) {
	var req models.CreateAdminRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating admin", "email", req.Email)

	admin, err := h.userService.CreateAdmin(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": MsgAdminCreated, "user": admin})
}

// Me returns the authenticated user's profile
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.Profile(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (student, instructor, catedratico, admin)"
// @Success 200 {object} map[string]interface{}
// @Router /users/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	filters, ok := h.parseUserFilters(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing users", "query", filters.Query)

	users, total, err := h.userService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	page := (filters.Offset / max(filters.Limit, 1)) + 1

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"page":  page,
		"size":  filters.Limit,
	})
}

// DeleteUser removes an account together with its memberships
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actorID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	userID := c.Param("id")

	h.LogRequest(c, "Deleting user", "user_id", userID)

	if err := h.userService.Delete(c.Request.Context(), actorID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: MsgUserDeleted})
}

// ChangeRole sets another user's role; admins only
// @Router /users/{id}/role [patch]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	actorID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req models.ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID := c.Param("id")
	h.LogRequest(c, "Changing user role", "user_id", userID, "role", req.Role)

	user, err := h.userService.ChangeRole(c.Request.Context(), actorID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgRoleUpdated, "user": user})
}

// ===== ROLE REQUESTS =====

// RequestRole submits the caller's request to become an instructor
// @Router /users/request-role [put]
func (h *UserHandler) RequestRole(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req models.RoleChangeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	request, err := h.roleRequestService.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgRequestSent, "roleRequest": request})
}

// PendingRequests lists role requests waiting for review
// @Router /users/pending-requests [get]
func (h *UserHandler) PendingRequests(c *gin.Context) {
	reviewerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	pending, err := h.roleRequestService.ListPending(c.Request.Context(), reviewerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pending)
}

// ApproveRequest promotes the requesting user
// @Router /users/approve-request/{id} [patch]
func (h *UserHandler) ApproveRequest(c *gin.Context) {
	h.reviewRequest(c, h.roleRequestService.Approve, MsgRequestApproved)
}

// RejectRequest closes a pending request without a role change
// @Router /users/reject-request/{id} [patch]
func (h *UserHandler) RejectRequest(c *gin.Context) {
	h.reviewRequest(c, h.roleRequestService.Reject, MsgRequestRejected)
}

type reviewFunc func(ctx context.Context, reviewerID, userID string) (*models.RoleRequest, error)

func (h *UserHandler) reviewRequest(c *gin.Context, review reviewFunc, message string) {
	reviewerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	userID := c.Param("id")

	h.LogRequest(c, "Reviewing role request", "user_id", userID)

	request, err := review(c.Request.Context(), reviewerID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "roleRequest": request})
}

// ===== HELPER METHODS =====

func (h *UserHandler) parseUserFilters(c *gin.Context) (models.UserFilters, bool) {
	page := 1
	size := 10

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if sizeStr := c.Query("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
			size = s
		}
	}

	filters := models.UserFilters{
		Limit:  size,
		Offset: (page - 1) * size,
		Query:  c.Query("q"),
	}

	if roleStr := c.Query("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		if !role.IsValid() {
			h.RespondWithError(c, http.StatusBadRequest, services.MsgInvalidRole, nil)
			return filters, false
		}
		filters.Role = &role
	}

	return filters, true
}
