package telegram

import (
	"context"
	"encoding/json"
	"net/http"
)

// WebhookHandler returns an http.HandlerFunc for webhook mode, the
// alternative to long-polling. Updates are acknowledged immediately and
// processed on the given lifecycle context, not the request context, so an
// in-flight relay call survives Telegram closing the webhook request.
func (h *Handler) WebhookHandler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			h.logger.Warn("webhook: undecodable update", "error", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if update.Message != nil {
			go h.HandleMessage(ctx, *update.Message)
		}
		w.WriteHeader(http.StatusOK)
	}
}
