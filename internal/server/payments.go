package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/malipo/internal/payment/domain"
)

// idField accepts an id either as a JSON number or as the quoted string
// form the API renders.
type idField string

func (f *idField) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "null" {
		raw = ""
	}
	*f = idField(raw)
	return nil
}

type submitPaymentRequest struct {
	Phone     string  `json:"phone"`
	Amount    float64 `json:"amount"`
	ServiceID idField `json:"service_id"`
}

func (s *Server) SubmitPayment(c *gin.Context) {
	var req submitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var serviceID *snowflake.ID
	if raw := string(req.ServiceID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		serviceID = &id
	}

	resp, err := s.paymentSvc.Submit(c.Request.Context(), paymentdomain.SubmitPaymentRequest{
		Phone:     strings.TrimSpace(req.Phone),
		Amount:    req.Amount,
		ServiceID: serviceID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":              "success",
		"message":             "STK push sent successfully! Check your phone.",
		"payment_id":          resp.PaymentID,
		"customer_id":         resp.CustomerID,
		"checkout_request_id": resp.CheckoutRequestID,
		"payment_status":      resp.Status,
	})
}

func (s *Server) ListPayments(c *gin.Context) {
	payments, err := s.paymentSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"count":    len(payments),
		"payments": payments,
	})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	payment, err := s.paymentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"payment": payment,
	})
}
