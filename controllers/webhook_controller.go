package controllers

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"vela_server/models"
	"vela_server/services"
)

// WebhookController receives event batches from the messaging platform and
// feeds them through the conversation state machine.
type WebhookController struct {
	Conversations *services.ConversationService
	Logger        *zap.Logger
}

func NewWebhookController(conversations *services.ConversationService, logger *zap.Logger) *WebhookController {
	return &WebhookController{Conversations: conversations, Logger: logger}
}

type webhookRequest struct {
	Events []models.InboundEvent `json:"events"`
}

// HandleWebhook processes the batch. Events for different users run
// concurrently; per-user ordering is enforced by the state version check,
// not by this handler.
func (c *WebhookController) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if len(req.Events) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"responses": []models.Response{}})
		return
	}

	ctx := r.Context()
	results := make([][]models.Response, len(req.Events))

	var wg sync.WaitGroup
	for i := range req.Events {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Conversations.HandleEvent(ctx, &req.Events[i])
		}(i)
	}
	wg.Wait()

	responses := make([]models.Response, 0, len(req.Events))
	for _, rs := range results {
		responses = append(responses, rs...)
	}

	c.Logger.Debug("webhook batch handled",
		zap.Int("events", len(req.Events)),
		zap.Int("responses", len(responses)),
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{"responses": responses})
}
