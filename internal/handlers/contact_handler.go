package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/0xobelisk/dubhe-website-sub001/internal/services"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/logger"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error messages for failures outside the submission flow
const (
	ErrMsgInternal     = "Internal server error"
	ErrMsgBodyTooLarge = "Request body too large"
)

type ContactHandler struct {
	service services.ContactServiceInterface
}

func NewContactHandler(service services.ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

// SubmitContact handles POST /api/contact
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var body map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		metrics.ContactFormSubmissions.WithLabelValues(string(models.OutcomeParseError)).Inc()

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, ErrMsgBodyTooLarge, err)
			return
		}
		respondError(c, http.StatusInternalServerError, ErrMsgInternal, fmt.Errorf("parse contact body: %w", err))
		return
	}

	client := ClientContextFromRequest(c)

	resp, err := h.service.SubmitContactForm(c.Request.Context(), body, client)
	if err != nil {
		logger.LogError(err, "Contact form submission failed",
			append(logger.TraceFields(c.Request.Context()),
				zap.String("client_ip", client.IP))...)
		respondError(c, http.StatusInternalServerError, ErrMsgInternal, err)
		return
	}

	if !resp.Success {
		attachError(c, fmt.Errorf("contact submission %s: %s", resp.Outcome, resp.Error))
	}
	c.JSON(statusFor(resp.Outcome), resp)
}

func statusFor(outcome models.Outcome) int {
	switch outcome {
	case models.OutcomeSent, models.OutcomeAcceptedDev, models.OutcomeAcceptedProd:
		return http.StatusOK
	case models.OutcomeInvalidInput, models.OutcomeRejectedContent:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
