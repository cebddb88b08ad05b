package handler

import (
	"net/http"
	"strconv"

	"invoicing/internal/middleware"
	"invoicing/internal/repository"
	"invoicing/internal/service"
	"invoicing/pkg/pagination"
	"invoicing/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	payments := router.Group("/api/payments", auth)
	{
		payments.POST("", h.CreatePayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.PUT("/:id", h.UpdatePayment)
		payments.DELETE("/:id", h.DeletePayment)
	}
}

// CreatePayment records a payment against an invoice
// @Summary      Create payment
// @Description  Records a payment against one of the authenticated user's invoices
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePaymentRequest  true  "Create Payment Payload"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// ListPayments returns a paginated list of payments
// @Summary      List payments
// @Description  Retrieves payments on the authenticated user's invoices, optionally filtered by invoice_id
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        invoice_id  query     int  false  "Filter by invoice ID"
// @Param        skip        query     int  false  "Number of records to skip (default 0)"
// @Param        limit       query     int  false  "Number of records to return (default 20, max 100)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      503         {object}  response.Response
// @Router       /api/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	params := pagination.Parse(c)
	invoiceID, _ := strconv.ParseUint(c.DefaultQuery("invoice_id", "0"), 10, 64)

	filter := repository.PaymentListFilter{
		InvoiceID: uint(invoiceID),
		Skip:      params.Skip,
		Limit:     params.Limit,
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"payments": payments,
		"total":    total,
		"skip":     params.Skip,
		"limit":    params.Limit,
	}))
}

// GetPayment returns a single payment
// @Summary      Get payment
// @Description  Retrieves a payment on one of the authenticated user's invoices by ID
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.PaymentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// UpdatePayment updates a payment record
// @Summary      Update payment
// @Description  Applies a partial update to a payment on one of the authenticated user's invoices
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                           true  "Payment ID"
// @Param        payload  body      service.UpdatePaymentRequest  true  "Update Payment Payload"
// @Success      200      {object}  response.Response{data=service.PaymentResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/payments/{id} [put]
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.paymentService.UpdatePayment(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// DeletePayment removes a payment record
// @Summary      Delete payment
// @Description  Permanently removes a payment on one of the authenticated user's invoices
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  int  true  "Payment ID"
// @Success      204  "No Content"
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [delete]
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.paymentService.DeletePayment(c.Request.Context(), middleware.UserID(c), id); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.Status(http.StatusNoContent)
}
