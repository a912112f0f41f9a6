package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ordermodel "bbm-backend/internal/domains/order/model"
	"bbm-backend/internal/domains/returns/model"
	"bbm-backend/internal/domains/returns/service"
	"bbm-backend/internal/shared/response"
)

// =====================================================
// RETURN HANDLER
// =====================================================
type ReturnHandler struct {
	returnService service.ReturnService
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(returnService service.ReturnService) *ReturnHandler {
	return &ReturnHandler{
		returnService: returnService,
	}
}

// =====================================================
// ROUTES REGISTRATION
// =====================================================

// RegisterRoutes registers return routes on the public, authenticated
// and admin groups.
func (h *ReturnHandler) RegisterRoutes(public, user, admin *gin.RouterGroup) {
	publicRoutes := public.Group("/returns")
	{
		publicRoutes.GET("/refund-methods", h.ListRefundMethods)     // GET /v1/returns/refund-methods
		publicRoutes.GET("/track/:returnNumber", h.TrackByNumber)    // GET /v1/returns/track/RET-1700000000000-042
	}

	userRoutes := user.Group("/returns")
	{
		userRoutes.POST("", h.SubmitReturn)            // POST /v1/returns
		userRoutes.POST("/preview", h.PreviewRefund)   // POST /v1/returns/preview
		userRoutes.GET("", h.ListUserReturns)          // GET /v1/returns
		userRoutes.GET("/:id", h.GetReturnRequest)     // GET /v1/returns/:id
		userRoutes.POST("/:id/cancel", h.CancelReturn) // POST /v1/returns/:id/cancel
	}

	orderRoutes := user.Group("/orders")
	{
		orderRoutes.GET("/:id/return-eligibility", h.CheckEligibility) // GET /v1/orders/:id/return-eligibility
		orderRoutes.GET("/:id/returns", h.ListOrderReturns)            // GET /v1/orders/:id/returns
	}

	adminRoutes := admin.Group("/returns")
	{
		adminRoutes.GET("", h.ListAllReturns)                   // GET /v1/admin/returns?status=pending&page=1&limit=20
		adminRoutes.PATCH("/:id/status", h.UpdateStatus)        // PATCH /v1/admin/returns/:id/status
		adminRoutes.GET("/:id/history", h.GetStatusHistory)     // GET /v1/admin/returns/:id/history
	}
}

// =====================================================
// ELIGIBILITY
// =====================================================

// CheckEligibility godoc
// @Summary Check return eligibility
// @Description Evaluate whether an order can be returned and which items qualify
// @Tags Returns
// @Produce json
// @Param id path string true "Order ID (UUID)"
// @Success 200 {object} response.Response{data=model.EligibilityResult}
// @Failure 404 {object} response.Response
// @Router /v1/orders/{id}/return-eligibility [get]
func (h *ReturnHandler) CheckEligibility(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Order ID must be a valid UUID")
		return
	}

	result, err := h.returnService.CheckEligibility(c.Request.Context(), orderID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// =====================================================
// PREVIEW REFUND
// =====================================================

// PreviewRefund godoc
// @Summary Preview refund amount
// @Description Compute the refund for an item selection without creating a request
// @Tags Returns
// @Accept json
// @Produce json
// @Param request body model.PreviewRefundRequest true "Preview request"
// @Success 200 {object} response.Response{data=model.PreviewRefundResponse}
// @Failure 422 {object} response.Response
// @Router /v1/returns/preview [post]
func (h *ReturnHandler) PreviewRefund(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req model.PreviewRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.returnService.PreviewRefund(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// =====================================================
// SUBMIT RETURN
// =====================================================

// SubmitReturn godoc
// @Summary Submit a return request
// @Description Validate the item selection, compute the refund and create the return request
// @Tags Returns
// @Accept json
// @Produce json
// @Param request body model.SubmitReturnRequest true "Return submission"
// @Success 201 {object} response.Response{data=model.SubmitReturnResponse}
// @Failure 422 {object} response.Response
// @Router /v1/returns [post]
func (h *ReturnHandler) SubmitReturn(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req model.SubmitReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.returnService.SubmitReturn(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// =====================================================
// QUERIES
// =====================================================

// ListUserReturns godoc
// @Summary List my return requests
// @Tags Returns
// @Produce json
// @Success 200 {object} response.Response{data=[]model.ReturnRequest}
// @Router /v1/returns [get]
func (h *ReturnHandler) ListUserReturns(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	requests, err := h.returnService.ListUserReturns(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, requests)
}

// GetReturnRequest godoc
// @Summary Get a return request
// @Tags Returns
// @Produce json
// @Param id path string true "Return request ID (UUID)"
// @Success 200 {object} response.Response{data=model.ReturnRequest}
// @Failure 404 {object} response.Response
// @Router /v1/returns/{id} [get]
func (h *ReturnHandler) GetReturnRequest(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Return request ID must be a valid UUID")
		return
	}

	ret, err := h.returnService.GetReturnRequest(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ret)
}

// ListOrderReturns godoc
// @Summary List return requests of an order
// @Description Return requests plus the per-item audit trail of the order
// @Tags Returns
// @Produce json
// @Param id path string true "Order ID (UUID)"
// @Success 200 {object} response.Response{data=model.OrderReturnsResponse}
// @Router /v1/orders/{id}/returns [get]
func (h *ReturnHandler) ListOrderReturns(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Order ID must be a valid UUID")
		return
	}

	result, err := h.returnService.ListOrderReturns(c.Request.Context(), orderID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// TrackByNumber godoc
// @Summary Track a return request by number
// @Description Public tracking lookup. An unknown number yields data=null, never 404.
// @Tags Returns
// @Produce json
// @Param returnNumber path string true "Return number"
// @Success 200 {object} response.Response{data=model.ReturnRequest}
// @Router /v1/returns/track/{returnNumber} [get]
func (h *ReturnHandler) TrackByNumber(c *gin.Context) {
	ret, err := h.returnService.TrackByNumber(c.Request.Context(), c.Param("returnNumber"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ret)
}

// ListRefundMethods godoc
// @Summary List refund methods
// @Tags Returns
// @Produce json
// @Success 200 {object} response.Response{data=[]model.RefundMethodInfo}
// @Router /v1/returns/refund-methods [get]
func (h *ReturnHandler) ListRefundMethods(c *gin.Context) {
	methods, err := h.returnService.RefundMethods(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, methods)
}

// =====================================================
// CANCEL RETURN
// =====================================================

// CancelReturn godoc
// @Summary Cancel a pending return request
// @Tags Returns
// @Produce json
// @Param id path string true "Return request ID (UUID)"
// @Success 200 {object} response.Response{data=model.ReturnRequest}
// @Failure 409 {object} response.Response
// @Router /v1/returns/{id}/cancel [post]
func (h *ReturnHandler) CancelReturn(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Return request ID must be a valid UUID")
		return
	}

	ret, err := h.returnService.CancelReturn(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ret)
}

// =====================================================
// ADMIN
// =====================================================

// UpdateStatus godoc
// @Summary Update return request status
// @Description Apply a lifecycle transition. Illegal transitions are rejected with 409.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Return request ID (UUID)"
// @Param request body model.UpdateStatusRequest true "Status update"
// @Success 200 {object} response.Response{data=model.ReturnRequest}
// @Failure 409 {object} response.Response
// @Router /v1/admin/returns/{id}/status [patch]
func (h *ReturnHandler) UpdateStatus(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Return request ID must be a valid UUID")
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	ret, err := h.returnService.UpdateStatus(c.Request.Context(), id, adminID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ret)
}

// ListAllReturns godoc
// @Summary List all return requests
// @Tags Admin
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response{data=[]model.ReturnRequest}
// @Router /v1/admin/returns [get]
func (h *ReturnHandler) ListAllReturns(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	requests, total, err := h.returnService.ListAllReturns(c.Request.Context(), status, page, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, requests, &response.Meta{
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// GetStatusHistory godoc
// @Summary Get the status history of a return request
// @Tags Admin
// @Produce json
// @Param id path string true "Return request ID (UUID)"
// @Success 200 {object} response.Response{data=[]model.ReturnStatusHistory}
// @Router /v1/admin/returns/{id}/history [get]
func (h *ReturnHandler) GetStatusHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Return request ID must be a valid UUID")
		return
	}

	history, err := h.returnService.GetStatusHistory(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, history)
}

// =====================================================
// HELPERS
// =====================================================

// userID extracts the authenticated user from the context set by the
// auth middleware. Writes the error response itself on failure.
func (h *ReturnHandler) userID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("userID")
	if !exists {
		response.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps domain errors onto HTTP statuses.
func (h *ReturnHandler) handleServiceError(c *gin.Context, err error) {
	var retErr *model.ReturnError
	if errors.As(err, &retErr) {
		switch retErr.Code {
		case model.ErrCodeUnauthorized:
			response.ErrorResponse(c, http.StatusForbidden, retErr.Code, retErr.Message)
		case model.ErrCodeInvalidTransition:
			response.ErrorResponse(c, http.StatusConflict, retErr.Code, retErr.Message)
		case model.ErrCodeNotEligible, model.ErrCodeQuantityExceeded,
			model.ErrCodeValidation, model.ErrCodeInvalidRefundMethod:
			response.ErrorResponse(c, http.StatusUnprocessableEntity, retErr.Code, retErr.Message)
		case model.ErrCodeInvalidStatus:
			response.ErrorResponse(c, http.StatusBadRequest, retErr.Code, retErr.Message)
		case model.ErrCodeReturnNotFound:
			response.ErrorResponse(c, http.StatusNotFound, retErr.Code, retErr.Message)
		default:
			response.ErrorResponse(c, http.StatusBadRequest, retErr.Code, retErr.Message)
		}
		return
	}

	switch {
	case errors.Is(err, model.ErrReturnRequestNotFound):
		response.NotFound(c, "Return request not found")
	case errors.Is(err, ordermodel.ErrOrderNotFound):
		response.NotFound(c, "Order not found")
	case errors.Is(err, ordermodel.ErrVersionMismatch):
		response.Conflict(c, "Order changed while the return was being submitted, please retry")
	case errors.Is(err, model.ErrInvalidTransition):
		response.Conflict(c, err.Error())
	case errors.Is(err, model.ErrQuantityExceeded):
		response.UnprocessableEntity(c, err.Error())
	default:
		response.InternalServerError(c, "Something went wrong, please try again later")
	}
}
