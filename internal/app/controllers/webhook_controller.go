package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/services"
	"github.com/advoga/advoga/internal/pkg/whatsapp"
)

// WebhookController receives WhatsApp webhook deliveries
type WebhookController struct {
	whatsappService services.WhatsAppService
	client          *whatsapp.Client
	logger          zerolog.Logger
}

// NewWebhookController creates a new WebhookController
func NewWebhookController(whatsappService services.WhatsAppService, client *whatsapp.Client, logger zerolog.Logger) *WebhookController {
	return &WebhookController{
		whatsappService: whatsappService,
		client:          client,
		logger:          logger,
	}
}

// Verify answers the provider's one-time subscription handshake: echo the
// challenge when the verify token matches, reject otherwise.
func (c *WebhookController) Verify(ctx *gin.Context) {
	mode := ctx.Query("hub.mode")
	token := ctx.Query("hub.verify_token")
	challenge := ctx.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == c.client.VerifyToken() {
		ctx.String(http.StatusOK, challenge)
		return
	}
	c.logger.Warn().Str("mode", mode).Msg("Webhook verification rejected")
	ctx.String(http.StatusForbidden, "Forbidden")
}

// Receive handles a webhook delivery. The raw body is read before any
// parsing because the signature covers the exact bytes sent.
func (c *WebhookController) Receive(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		ctx.String(http.StatusBadRequest, "Bad Request")
		return
	}

	signature := ctx.GetHeader(whatsapp.SignatureHeader())
	if !c.client.VerifyWebhookSignature(body, signature) {
		c.logger.Warn().Msg("Webhook signature verification failed")
		ctx.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := c.whatsappService.ProcessWebhook(ctx.Request.Context(), body); err != nil {
		c.logger.Error().Err(err).Msg("Webhook processing failed")
		ctx.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	ctx.String(http.StatusOK, "OK")
}
