package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/malipo/internal/config"
	paymentdomain "github.com/smallbiznis/malipo/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	oauthPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	// timestampLayout feeds the password derivation. The gateway validates
	// the password byte-for-byte, so the layout must stay YYYYMMDDHHMMSS.
	timestampLayout = "20060102150405"

	// tokenSafetyWindow forces a refresh when the cached token would expire
	// mid-call.
	tokenSafetyWindow = 30 * time.Second
)

// Client initiates STK push requests against the Daraja API. Stateless
// between calls except for the cached access token.
type Client struct {
	cfg  config.DarajaConfig
	http *http.Client
	log  *zap.Logger
	now  func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func New(cfg config.DarajaConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log.Named("gateway.daraja"),
		now:  time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type pushRequest struct {
	BusinessShortCode string  `json:"BusinessShortCode"`
	Password          string  `json:"Password"`
	Timestamp         string  `json:"Timestamp"`
	TransactionType   string  `json:"TransactionType"`
	Amount            float64 `json:"Amount"`
	PartyA            string  `json:"PartyA"`
	PartyB            string  `json:"PartyB"`
	PhoneNumber       string  `json:"PhoneNumber"`
	CallBackURL       string  `json:"CallBackURL"`
	AccountReference  string  `json:"AccountReference"`
	TransactionDesc   string  `json:"TransactionDesc"`
}

type pushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

// RequestPush asks the gateway to prompt the payer's device for the amount.
func (c *Client) RequestPush(ctx context.Context, phone string, amount float64) (*paymentdomain.PushOutcome, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := c.password()
	payload := pushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  "Service Payment",
		TransactionDesc:   "Payment for Service",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode push request: %v", paymentdomain.ErrGatewayUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+stkPushPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read push response: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: gateway returned %d", paymentdomain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var out pushResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode push response: %v", paymentdomain.ErrGatewayUnavailable, err)
	}

	if out.ErrorCode != "" || out.ErrorMessage != "" {
		return nil, &paymentdomain.RejectedError{Code: out.ErrorCode, Message: out.ErrorMessage}
	}
	if out.ResponseCode != "0" {
		return nil, &paymentdomain.RejectedError{Code: out.ResponseCode, Message: out.ResponseDescription}
	}
	if strings.TrimSpace(out.CheckoutRequestID) == "" {
		return nil, fmt.Errorf("%w: acceptance without checkout request id", paymentdomain.ErrGatewayUnavailable)
	}

	c.log.Info("stk push accepted",
		zap.String("checkout_request_id", out.CheckoutRequestID),
		zap.String("merchant_request_id", out.MerchantRequestID),
	)
	return &paymentdomain.PushOutcome{
		MerchantRequestID:   out.MerchantRequestID,
		CheckoutRequestID:   out.CheckoutRequestID,
		ResponseDescription: out.ResponseDescription,
		CustomerMessage:     out.CustomerMessage,
	}, nil
}

// password derives the rotating request secret:
// base64(shortcode + passkey + timestamp).
func (c *Client) password() (string, string) {
	timestamp := c.now().Format(timestampLayout)
	encoded := base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
	return encoded, timestamp
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(tokenSafetyWindow).Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+oauthPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch access token: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", paymentdomain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", paymentdomain.ErrGatewayUnavailable)
	}

	ttl := parseExpiry(out.ExpiresIn)
	c.token = out.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	return c.token, nil
}

func parseExpiry(raw string) time.Duration {
	var seconds int
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d", &seconds); err != nil || seconds <= 0 {
		// Daraja hands out hour-long tokens; fall back to a single call
		// window when the field is missing.
		return tokenSafetyWindow
	}
	return time.Duration(seconds) * time.Second
}
