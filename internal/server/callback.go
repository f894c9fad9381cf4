package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/malipo/internal/payment/domain"
	"go.uber.org/zap"
)

// darajaCallback is the Body.stkCallback envelope the gateway posts after
// the payer resolves the push prompt.
type darajaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

func (s *Server) HandleDarajaCallback(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var callback darajaCallback
	if err := json.Unmarshal(payload, &callback); err != nil {
		s.log.Warn("malformed daraja callback", zap.Error(err))
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err = s.paymentSvc.HandleCallback(c.Request.Context(), paymentdomain.CallbackEvent{
		CheckoutRequestID: callback.Body.StkCallback.CheckoutRequestID,
		ResultCode:        callback.Body.StkCallback.ResultCode,
		ResultDesc:        callback.Body.StkCallback.ResultDesc,
		RawPayload:        payload,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// The gateway only needs an acknowledgement.
	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}
