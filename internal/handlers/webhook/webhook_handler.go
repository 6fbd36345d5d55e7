// internal/handlers/webhook/webhook_handler.go
package webhook

import (
	"errors"
	"net/http"

	xerrors "pocket-agency-service/internal/pkg/errors"
	service "pocket-agency-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const statusComplete = "COMPLETE"

// WebhookHandler ingests asynchronous payment notifications from the
// gateway. The gateway delivers at least once and retries on anything it
// reads as failure, so the handler acknowledges everything it can and
// reserves 5xx for genuine internal faults worth retrying.
type WebhookHandler struct {
	subscriptionService *service.SubscriptionService
	logger              *zap.Logger
}

func NewWebhookHandler(subscriptionService *service.SubscriptionService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// HandleNotify processes one form-encoded payment notification.
func (h *WebhookHandler) HandleNotify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		// Parsing faults are the sender's problem; a 5xx here would only
		// trigger pointless retries.
		c.JSON(http.StatusBadRequest, gin.H{"acknowledged": false, "error": "malformed payload"})
		return
	}

	paymentID := c.Request.PostForm.Get("m_payment_id")
	paymentStatus := c.Request.PostForm.Get("payment_status")

	if paymentID == "" || paymentStatus == "" {
		h.logger.Warn("notification missing required fields",
			zap.String("m_payment_id", paymentID),
			zap.String("payment_status", paymentStatus),
		)
		c.JSON(http.StatusBadRequest, gin.H{"acknowledged": false, "error": "missing m_payment_id or payment_status"})
		return
	}

	h.subscriptionService.RecordWebhookEvent(
		c.Request.Context(), paymentID, paymentStatus, c.Request.PostForm.Encode(),
	)

	if paymentStatus != statusComplete {
		// Statuses this system does not act on are still acknowledged so
		// the gateway stops redelivering them.
		h.logger.Info("notification acknowledged without action",
			zap.String("m_payment_id", paymentID),
			zap.String("payment_status", paymentStatus),
		)
		c.JSON(http.StatusOK, gin.H{"acknowledged": true})
		return
	}

	gatewayToken := c.Request.PostForm.Get("token")

	err := h.subscriptionService.ApplyPaymentComplete(c.Request.Context(), paymentID, gatewayToken)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			// Unknown payment id: logged for reconciliation, but a retry
			// will not make the record appear.
			c.JSON(http.StatusOK, gin.H{"acknowledged": true})
			return
		}

		h.logger.Error("failed to apply COMPLETE notification",
			zap.String("m_payment_id", paymentID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"acknowledged": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}
