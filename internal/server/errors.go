package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/malipo/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/malipo/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/malipo/internal/payment/domain"
)

// errorResponse is the wire shape for every failed request:
// {"status":"error","message":"..."}.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// ErrorHandlingMiddleware maps domain errors pushed onto the gin context to
// HTTP statuses and the error body. Handlers abort with AbortWithError and
// leave the mapping here.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Status: "error", Message: message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	var rejected *paymentdomain.RejectedError
	switch {
	case errors.Is(err, paymentdomain.ErrInvalidAmount):
		return http.StatusBadRequest, "amount must be greater than zero"
	case errors.Is(err, paymentdomain.ErrInvalidPhone),
		errors.Is(err, customerdomain.ErrInvalidPhone):
		return http.StatusBadRequest, "invalid phone number"
	case errors.Is(err, paymentdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity, "payment request failed: " + rejected.Message
	case errors.Is(err, paymentdomain.ErrGatewayUnavailable):
		return http.StatusBadGateway, "payment gateway unavailable"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "too many payment requests, slow down"
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
