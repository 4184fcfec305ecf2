package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"order-relay/internal/config"
	"order-relay/internal/domain"
	"order-relay/internal/logger"
	"order-relay/internal/publisher"
	"order-relay/internal/store"
	"order-relay/internal/telegram"
)

type callbackProcessor interface {
	ProcessCallback(ctx context.Context, cb telegram.CallbackQuery)
}

type Handlers struct {
	cfg       config.Telegram
	tg        telegram.API
	payloads  store.Store
	states    publisher.StatePublisher
	processor callbackProcessor
	lg        *logger.Logger
}

type PublishResponse struct {
	Success   bool `json:"success"`
	MessageID int  `json:"message_id,omitempty"`
}

func New(cfg config.Telegram, tg telegram.API, payloads store.Store, states publisher.StatePublisher, processor callbackProcessor, lg *logger.Logger) *Handlers {
	return &Handlers{
		cfg: cfg, tg: tg, payloads: payloads, states: states,
		processor: processor, lg: lg,
	}
}

// Register mounts the API routes on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/publish", h.publish)
	mux.HandleFunc("/api/publish/order/", h.deleteOrder)
	mux.HandleFunc("/api/telegram/webhook", h.webhook)
}

// publish posts an offer message to the channel, caches its payload and
// location for later refuse/delete flows, and announces the Published state.
func (h *Handlers) publish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var payload domain.OrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		h.lg.Warn("publish_empty_text", nil, nil)
		http.Error(w, "message text must not be empty", http.StatusBadRequest)
		return
	}
	chat := payload.ChatID
	if strings.TrimSpace(chat) == "" {
		chat = h.cfg.ChannelID
	}
	if strings.TrimSpace(chat) == "" {
		http.Error(w, "no chat_id given and telegram.channel_id not configured", http.StatusBadRequest)
		return
	}

	msgID, err := h.tg.SendMessage(r.Context(), telegram.SendRequest{
		ChatID:      chat,
		Text:        payload.Text,
		ParseMode:   payload.ParseMode,
		ReplyMarkup: payload.ReplyMarkup,
	})
	if err != nil {
		h.lg.Error("publish_send_failed", err, map[string]any{"chat_id": chat})
		http.Error(w, "failed to send message to Telegram", http.StatusBadGateway)
		return
	}

	orderID := domain.ExtractOrderID(payload)
	if orderID != "" {
		if err := h.payloads.SavePayload(r.Context(), orderID, payload); err != nil {
			h.lg.Warn("payload_save_failed", err, map[string]any{"order_id": orderID})
		} else if err := h.payloads.SaveLocation(r.Context(), orderID, domain.MessageLocation{
			ChatID: chat, MessageID: msgID,
		}); err != nil {
			h.lg.Warn("location_save_failed", err, map[string]any{"order_id": orderID})
		}
		h.states.Publish(r.Context(), domain.StateMessage{
			OrderID:   orderID,
			Status:    domain.StatusPublished,
			Timestamp: time.Now().UTC(),
			MessageID: &msgID,
			ChatID:    chat,
		})
	}

	h.lg.Info("order_published", map[string]any{
		"order_id": orderID, "chat_id": chat, "message_id": msgID,
	})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(PublishResponse{Success: true, MessageID: msgID})
}

// deleteOrder removes a published offer from the channel by order id. Only
// works for orders whose message location is still in the store.
func (h *Handlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orderID := strings.TrimPrefix(r.URL.Path, "/api/publish/order/")
	if orderID == "" || strings.Contains(orderID, "/") {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}

	loc, found, err := h.payloads.GetLocation(r.Context(), orderID)
	if err != nil {
		h.lg.Error("location_lookup_failed", err, map[string]any{"order_id": orderID})
		http.Error(w, "payload store unavailable", http.StatusBadGateway)
		return
	}
	if !found {
		h.lg.Info("delete_order_not_found", map[string]any{"order_id": orderID})
		http.Error(w, "order publication not found (missing from store or expired)", http.StatusNotFound)
		return
	}

	if err := h.tg.DeleteMessage(r.Context(), loc.ChatID, loc.MessageID); err != nil {
		h.lg.Error("delete_message_failed", err, map[string]any{"order_id": orderID})
		http.Error(w, "failed to delete message in Telegram", http.StatusBadGateway)
		return
	}
	if err := h.payloads.Delete(r.Context(), orderID); err != nil {
		h.lg.Warn("payload_delete_failed", err, map[string]any{"order_id": orderID})
	}
	h.states.Publish(r.Context(), domain.StateMessage{
		OrderID:   orderID,
		Status:    domain.StatusDeleted,
		Timestamp: time.Now().UTC(),
	})

	h.lg.Info("order_deleted", map[string]any{"order_id": orderID})
	w.WriteHeader(http.StatusNoContent)
}

// webhook accepts Bot API updates. It always responds 200 so Telegram does
// not redeliver on internal failures.
func (h *Handlers) webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.lg.Warn("webhook_bad_body", err, nil)
		w.WriteHeader(http.StatusOK)
		return
	}
	if update.CallbackQuery != nil {
		h.processor.ProcessCallback(r.Context(), *update.CallbackQuery)
	}
	w.WriteHeader(http.StatusOK)
}
