package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/malipo/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/malipo/internal/customer/domain"
	obsmetrics "github.com/smallbiznis/malipo/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/malipo/internal/payment/domain"
	pkgdb "github.com/smallbiznis/malipo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Gateway     paymentdomain.Gateway
	CustomerSvc customerdomain.Service
	CatalogRepo catalogdomain.Repository
	Repo        paymentdomain.Repository
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

// Service orchestrates a payment attempt end-to-end: gateway dispatch,
// customer resolution, record creation, and callback correlation.
type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	gateway     paymentdomain.Gateway
	customerSvc customerdomain.Service
	catalogRepo catalogdomain.Repository
	repo        paymentdomain.Repository
	obsMetrics  *obsmetrics.Metrics
}

func New(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		gateway:     p.Gateway,
		customerSvc: p.CustomerSvc,
		catalogRepo: p.CatalogRepo,
		repo:        p.Repo,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) Submit(ctx context.Context, req paymentdomain.SubmitPaymentRequest) (paymentdomain.SubmitPaymentResponse, error) {
	if req.Amount <= 0 {
		s.obsMetrics.RecordSubmission("invalid_amount")
		return paymentdomain.SubmitPaymentResponse{}, paymentdomain.ErrInvalidAmount
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		s.obsMetrics.RecordSubmission("invalid_phone")
		return paymentdomain.SubmitPaymentResponse{}, paymentdomain.ErrInvalidPhone
	}

	// Gateway first: a declined or failed dispatch must leave no customer
	// and no Pending row behind.
	outcome, err := s.gateway.RequestPush(ctx, phone, req.Amount)
	if err != nil {
		var rejected *paymentdomain.RejectedError
		switch {
		case errors.As(err, &rejected):
			s.obsMetrics.RecordGatewayRequest("rejected")
			s.obsMetrics.RecordSubmission("rejected")
			s.log.Warn("gateway declined push request",
				zap.String("code", rejected.Code),
				zap.String("message", rejected.Message),
			)
		case errors.Is(err, paymentdomain.ErrGatewayUnavailable):
			s.obsMetrics.RecordGatewayRequest("transport_error")
			s.obsMetrics.RecordSubmission("transport_error")
			s.log.Error("gateway unreachable", zap.Error(err))
		}
		return paymentdomain.SubmitPaymentResponse{}, err
	}
	s.obsMetrics.RecordGatewayRequest("accepted")

	customer, err := s.customerSvc.FindOrCreate(ctx, customerdomain.FindOrCreateRequest{
		Phone:       phone,
		DefaultName: "Customer",
	})
	if err != nil {
		if errors.Is(err, customerdomain.ErrInvalidPhone) {
			err = paymentdomain.ErrInvalidPhone
		}
		s.obsMetrics.RecordSubmission("store_error")
		return paymentdomain.SubmitPaymentResponse{}, err
	}

	serviceID := s.resolveService(ctx, req.ServiceID)

	now := time.Now().UTC()
	payment := paymentdomain.Payment{
		ID:                s.genID.Generate(),
		CustomerID:        customer.ID,
		ServiceID:         serviceID,
		Amount:            req.Amount,
		Status:            paymentdomain.StatusPending,
		CheckoutRequestID: outcome.CheckoutRequestID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// The gateway handed out a checkout request id we already hold.
			s.log.Error("checkout request id already recorded",
				zap.String("checkout_request_id", payment.CheckoutRequestID),
			)
		}
		s.obsMetrics.RecordSubmission("store_error")
		return paymentdomain.SubmitPaymentResponse{}, err
	}

	s.obsMetrics.RecordSubmission("accepted")
	s.log.Info("payment recorded",
		zap.Int64("payment_id", int64(payment.ID)),
		zap.Int64("customer_id", int64(customer.ID)),
		zap.String("checkout_request_id", payment.CheckoutRequestID),
	)
	return paymentdomain.SubmitPaymentResponse{
		PaymentID:         payment.ID,
		CustomerID:        customer.ID,
		CheckoutRequestID: payment.CheckoutRequestID,
		Status:            payment.Status,
	}, nil
}

// resolveService is best-effort: a stale or unknown service id does not fail
// the payment, it is simply recorded without a service reference.
func (s *Service) resolveService(ctx context.Context, id *snowflake.ID) *snowflake.ID {
	if id == nil || *id == 0 {
		return nil
	}
	svc, err := s.catalogRepo.FindByID(ctx, s.db, *id)
	if err != nil {
		s.log.Warn("service lookup failed", zap.Int64("service_id", int64(*id)), zap.Error(err))
		return nil
	}
	if svc == nil {
		s.log.Warn("service not found, proceeding without linkage", zap.Int64("service_id", int64(*id)))
		return nil
	}
	return &svc.ID
}

func (s *Service) HandleCallback(ctx context.Context, event paymentdomain.CallbackEvent) error {
	checkoutID := strings.TrimSpace(event.CheckoutRequestID)
	if checkoutID == "" {
		s.obsMetrics.RecordCallback("unmatched")
		s.log.Warn("callback without checkout request id, discarding")
		return nil
	}

	status := paymentdomain.StatusFailed
	if event.ResultCode == 0 {
		status = paymentdomain.StatusSuccess
	}

	var payload datatypes.JSON
	if json.Valid(event.RawPayload) {
		payload = datatypes.JSON(event.RawPayload)
	}

	rows, err := s.repo.FinalizeByCheckoutID(ctx, s.db, checkoutID, status, event.ResultCode, event.ResultDesc, payload)
	if err != nil {
		return err
	}
	if rows == 0 {
		existing, err := s.repo.FindByCheckoutID(ctx, s.db, checkoutID)
		if err != nil {
			return err
		}
		if existing == nil {
			// Expected for stale or foreign ids; acknowledged and dropped.
			s.obsMetrics.RecordCallback("unmatched")
			s.log.Warn("callback for unknown checkout request id",
				zap.String("checkout_request_id", checkoutID),
			)
			return nil
		}
		s.obsMetrics.RecordCallback("duplicate")
		s.log.Debug("repeat callback for finalized payment",
			zap.String("checkout_request_id", checkoutID),
			zap.String("status", string(existing.Status)),
		)
		return nil
	}

	s.obsMetrics.RecordCallback(strings.ToLower(string(status)))
	s.log.Info("payment finalized",
		zap.String("checkout_request_id", checkoutID),
		zap.String("status", string(status)),
		zap.Int("result_code", event.ResultCode),
	)
	return nil
}

func (s *Service) List(ctx context.Context) ([]paymentdomain.Payment, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) GetByID(ctx context.Context, id string) (paymentdomain.Payment, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidID
	}

	payment, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrNotFound
	}
	return *payment, nil
}
