package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	catalogdomain "github.com/smallbiznis/malipo/internal/catalog/domain"
	catalogrepository "github.com/smallbiznis/malipo/internal/catalog/repository"
	"github.com/smallbiznis/malipo/internal/config"
	customerdomain "github.com/smallbiznis/malipo/internal/customer/domain"
	customerrepository "github.com/smallbiznis/malipo/internal/customer/repository"
	customerservice "github.com/smallbiznis/malipo/internal/customer/service"
	paymentdomain "github.com/smallbiznis/malipo/internal/payment/domain"
	paymentrepository "github.com/smallbiznis/malipo/internal/payment/repository"
	paymentservice "github.com/smallbiznis/malipo/internal/payment/service"
	"github.com/smallbiznis/malipo/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubGateway struct {
	fn func(ctx context.Context, phone string, amount float64) (*paymentdomain.PushOutcome, error)
}

func (g *stubGateway) RequestPush(ctx context.Context, phone string, amount float64) (*paymentdomain.PushOutcome, error) {
	return g.fn(ctx, phone, amount)
}

func newTestServer(t *testing.T, gateway paymentdomain.Gateway) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&catalogdomain.Service{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	customerSvc := customerservice.New(customerservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  customerrepository.Provide(),
	})
	paymentSvc := paymentservice.New(paymentservice.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Gateway:     gateway,
		CustomerSvc: customerSvc,
		CatalogRepo: catalogrepository.Provide(),
		Repo:        paymentrepository.Provide(),
	})

	engine := NewEngine(log, prometheus.NewRegistry())
	srv := NewServer(ServerParams{
		Gin:         engine,
		Cfg:         config.Config{AppName: "malipo"},
		DB:          db,
		Log:         log,
		PaymentSvc:  paymentSvc,
		CustomerSvc: customerSvc,
		CatalogRepo: catalogrepository.Provide(),
	})
	return srv, db
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

// Snowflake ids marshal as quoted strings on the wire.
type submitResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	PaymentID         string `json:"payment_id"`
	CustomerID        string `json:"customer_id"`
	CheckoutRequestID string `json:"checkout_request_id"`
	PaymentStatus     string `json:"payment_status"`
}

func acceptingGateway(checkoutID string) *stubGateway {
	return &stubGateway{fn: func(context.Context, string, float64) (*paymentdomain.PushOutcome, error) {
		return &paymentdomain.PushOutcome{CheckoutRequestID: checkoutID}, nil
	}}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, acceptingGateway("ws_CO_000"))
	w := doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitPayment(t *testing.T) {
	srv, _ := newTestServer(t, acceptingGateway("ws_CO_100"))

	w := doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":  "254712345678",
		"amount": 500,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp submitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "ws_CO_100", resp.CheckoutRequestID)
	assert.Equal(t, "Pending", resp.PaymentStatus)
	assert.NotEmpty(t, resp.PaymentID)
	assert.NotEmpty(t, resp.CustomerID)
}

func TestSubmitPaymentValidation(t *testing.T) {
	srv, db := newTestServer(t, acceptingGateway("ws_CO_101"))

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{name: "zero amount", body: gin.H{"phone": "254712345678", "amount": 0}, want: http.StatusBadRequest},
		{name: "negative amount", body: gin.H{"phone": "254712345678", "amount": -10}, want: http.StatusBadRequest},
		{name: "missing phone", body: gin.H{"amount": 100}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, srv, http.MethodPost, "/api/payments", tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"error"`)
		})
	}

	var count int64
	require.NoError(t, db.Model(&paymentdomain.Payment{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestSubmitPaymentWithServiceID(t *testing.T) {
	var pushes int
	srv, db := newTestServer(t, &stubGateway{fn: func(context.Context, string, float64) (*paymentdomain.PushOutcome, error) {
		pushes++
		return &paymentdomain.PushOutcome{CheckoutRequestID: fmt.Sprintf("ws_CO_103_%d", pushes)}, nil
	}})

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	known := catalogdomain.Service{ID: node.Generate(), Name: "Installation", Price: 1500}
	require.NoError(t, db.Create(&known).Error)

	w := doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":      "254712345678",
		"amount":     1500,
		"service_id": known.ID.String(),
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The bare integer form is accepted too.
	w = doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":      "254712345678",
		"amount":     1500,
		"service_id": int64(known.ID),
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":      "254712345678",
		"amount":     1500,
		"service_id": "not-an-id",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitPaymentMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, acceptingGateway("ws_CO_102"))

	req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitPaymentGatewayRejected(t *testing.T) {
	srv, db := newTestServer(t, &stubGateway{fn: func(context.Context, string, float64) (*paymentdomain.PushOutcome, error) {
		return nil, &paymentdomain.RejectedError{Code: "1032", Message: "Request cancelled by user"}
	}})

	w := doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":  "254712345678",
		"amount": 100,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Request cancelled by user")

	var count int64
	require.NoError(t, db.Model(&paymentdomain.Payment{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestSubmitPaymentGatewayUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, &stubGateway{fn: func(context.Context, string, float64) (*paymentdomain.PushOutcome, error) {
		return nil, fmt.Errorf("%w: connection refused", paymentdomain.ErrGatewayUnavailable)
	}})

	w := doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":  "254712345678",
		"amount": 100,
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDarajaCallbackRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, acceptingGateway("ws_CO_200"))

	w := doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":  "254712345678",
		"amount": 100,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp submitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	callback := gin.H{
		"Body": gin.H{
			"stkCallback": gin.H{
				"MerchantRequestID": "mr_200",
				"CheckoutRequestID": "ws_CO_200",
				"ResultCode":        0,
				"ResultDesc":        "The service request is processed successfully.",
			},
		},
	}
	w = doRequest(t, srv, http.MethodPost, "/callbacks/daraja", callback)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ResultCode":0`)

	w = doRequest(t, srv, http.MethodGet, "/api/payments/"+resp.PaymentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Success"`)
}

func TestDarajaCallbackUnknownIDIsAcknowledged(t *testing.T) {
	srv, _ := newTestServer(t, acceptingGateway("ws_CO_201"))

	callback := gin.H{
		"Body": gin.H{
			"stkCallback": gin.H{
				"CheckoutRequestID": "ws_CO_never_issued",
				"ResultCode":        0,
			},
		},
	}
	w := doRequest(t, srv, http.MethodPost, "/callbacks/daraja", callback)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDarajaCallbackMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, acceptingGateway("ws_CO_202"))

	req := httptest.NewRequest(http.MethodPost, "/callbacks/daraja", strings.NewReader("<xml/>"))
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPaymentByID(t *testing.T) {
	srv, _ := newTestServer(t, acceptingGateway("ws_CO_300"))

	w := doRequest(t, srv, http.MethodGet, "/api/payments/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/payments/1234567890123456789", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEndpoints(t *testing.T) {
	srv, db := newTestServer(t, acceptingGateway("ws_CO_400"))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	require.NoError(t, db.Create(&catalogdomain.Service{
		ID: node.Generate(), Name: "Consultation", Price: 500, CreatedAt: time.Now().UTC(),
	}).Error)

	w := doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":  "254712345678",
		"amount": 500,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = doRequest(t, srv, http.MethodGet, "/api/customers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "254712345678")

	w = doRequest(t, srv, http.MethodGet, "/api/services", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Consultation")
}

func TestSubmitRateLimitDisabled(t *testing.T) {
	// The test server carries no limiter; submissions must pass untouched.
	srv, _ := newTestServer(t, acceptingGateway("ws_CO_500"))
	require.False(t, srv.submitLimiter.Enabled())

	w := doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":  "254712345678",
		"amount": 100,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitRateLimitRedisUnreachable(t *testing.T) {
	srv, _ := newTestServer(t, acceptingGateway("ws_CO_501"))

	limiter, err := ratelimit.NewSubmitLimiter(config.Config{
		RateLimit: config.RateLimitConfig{
			Enabled:     true,
			RedisAddr:   "127.0.0.1:1",
			SubmitRate:  1,
			SubmitBurst: 1,
		},
	})
	require.NoError(t, err)
	srv.submitLimiter = limiter

	w := doRequest(t, srv, http.MethodPost, "/api/payments", gin.H{
		"phone":  "254712345678",
		"amount": 100,
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}
