package relay

import (
	"context"
	"strconv"
	"strings"
	"time"

	"order-relay/internal/domain"
	"order-relay/internal/logger"
	"order-relay/internal/publisher"
	"order-relay/internal/store"
	"order-relay/internal/telegram"
)

// User-visible answers and message fragments.
const (
	answerAccepted   = "Accepted"
	answerTaken      = "Order already taken"
	answerRefused    = "Order removed from you"
	answerOnlyOwner  = "Only the courier who took the order can do that."
	replyTextPrefix  = "👤 Order taken by: "
	deliveredMark    = "\n✅ Delivered"
	buttonDelivered  = "✅ Delivered"
	buttonRefuse     = "Refuse"
	fallbackCourier  = "Courier"
	defaultParseMode = "HTML"
)

// Processor routes callback events through the claim state machine.
// It owns the two registries; everything else is an injected collaborator.
// Safe for concurrent use: registry operations are single atomic steps and
// never span an outbound call.
type Processor struct {
	tg       telegram.API
	payloads store.Store
	states   publisher.StatePublisher
	lg       *logger.Logger

	claims *ClaimRegistry
	owners *OwnershipRegistry

	now func() time.Time
}

func NewProcessor(tg telegram.API, payloads store.Store, states publisher.StatePublisher, lg *logger.Logger) *Processor {
	return &Processor{
		tg:       tg,
		payloads: payloads,
		states:   states,
		lg:       lg,
		claims:   NewClaimRegistry(),
		owners:   NewOwnershipRegistry(),
		now:      time.Now,
	}
}

// ProcessCallback handles one inline-button press. Every branch answers the
// callback exactly once; collaborator failures are logged and the flow
// continues with whatever independent steps remain.
func (p *Processor) ProcessCallback(ctx context.Context, cb telegram.CallbackQuery) {
	act := ParseAction(cb.Data)
	name := displayName(cb.From)
	p.lg.Info("callback_received", map[string]any{"data": cb.Data, "user": name})

	msg := cb.Message
	hasMessage := msg != nil && msg.Chat != nil

	switch {
	case act.Kind == ActionDeliver && hasMessage && cb.From != nil:
		p.handleDeliver(ctx, cb, act.OrderID, name)
	case act.Kind == ActionRefuse && hasMessage && cb.From != nil:
		p.handleRefuse(ctx, cb, act.OrderID, name)
	case act.Kind == ActionTake && hasMessage:
		p.handleTake(ctx, cb, act.OrderID, name)
	default:
		p.handleGeneric(ctx, cb)
	}
}

// handleTake claims the offer message. Exactly one concurrent presser wins;
// the rest get the "already taken" alert and nothing else happens for them.
func (p *Processor) handleTake(ctx context.Context, cb telegram.CallbackQuery, orderID, name string) {
	msg := cb.Message
	key := MessageKey{ChatID: msg.Chat.ID, MessageID: msg.MessageID}

	if !p.claims.TryClaim(key) {
		p.answer(ctx, cb.ID, answerTaken, true)
		p.lg.Info("take_rejected", map[string]any{
			"chat_id": key.ChatID, "message_id": key.MessageID, "user": name,
		})
		return
	}

	p.answer(ctx, cb.ID, answerAccepted, false)

	chat := strconv.FormatInt(msg.Chat.ID, 10)
	if err := p.tg.EditMessageReplyMarkup(ctx, chat, msg.MessageID, emptyMarkup()); err != nil {
		// The offer still shows its button; posting a claim reply on top of
		// it would leave the channel inconsistent, so stop here.
		p.lg.Warn("clear_markup_failed", err, map[string]any{
			"chat_id": key.ChatID, "message_id": key.MessageID,
		})
		return
	}

	if cb.From == nil {
		return
	}

	replyID, err := p.tg.SendMessage(ctx, telegram.SendRequest{
		ChatID:  chat,
		Text:    replyTextPrefix + name,
		ReplyTo: msg.MessageID,
		ReplyMarkup: &domain.ReplyMarkup{InlineKeyboard: [][]domain.InlineKeyboardButton{{
			{Text: buttonDelivered, CallbackData: prefixDeliver + orderID},
			{Text: buttonRefuse, CallbackData: prefixRefuse + orderID},
		}}},
	})
	if err != nil {
		p.lg.Warn("claim_reply_failed", err, map[string]any{"order_id": orderID})
	} else {
		p.owners.Record(MessageKey{ChatID: msg.Chat.ID, MessageID: replyID}, cb.From.ID)
	}

	p.lg.Info("order_taken", map[string]any{"order_id": orderID, "user": name})
	p.states.Publish(ctx, domain.StateMessage{
		OrderID:   orderID,
		Status:    domain.StatusTaken,
		Timestamp: p.now().UTC(),
		UserID:    &cb.From.ID,
		UserName:  name,
	})
}

// handleDeliver closes out an order: only the recorded claimant may mark the
// claim reply as delivered.
func (p *Processor) handleDeliver(ctx context.Context, cb telegram.CallbackQuery, orderID, name string) {
	msg := cb.Message
	key := MessageKey{ChatID: msg.Chat.ID, MessageID: msg.MessageID}

	if !p.owners.Authorize(key, cb.From.ID) {
		p.answer(ctx, cb.ID, answerOnlyOwner, true)
		p.lg.Info("deliver_unauthorized", map[string]any{"order_id": orderID, "user": name})
		return
	}
	p.answer(ctx, cb.ID, answerAccepted, false)

	text := msg.Text
	if text == "" {
		text = replyTextPrefix + name
	}
	chat := strconv.FormatInt(msg.Chat.ID, 10)
	if err := p.tg.EditMessageText(ctx, chat, msg.MessageID, text+deliveredMark, emptyMarkup()); err != nil {
		p.lg.Warn("deliver_edit_failed", err, map[string]any{"order_id": orderID})
	}

	p.owners.Release(key)
	p.lg.Info("order_delivered", map[string]any{"order_id": orderID, "user": name})
	p.states.Publish(ctx, domain.StateMessage{
		OrderID:   orderID,
		Status:    domain.StatusDelivered,
		Timestamp: p.now().UTC(),
		UserID:    &cb.From.ID,
		UserName:  name,
	})
}

// handleRefuse hands the order back: the claim reply is removed, the offer
// key re-opened and the original payload re-published when it is still in
// the store.
func (p *Processor) handleRefuse(ctx context.Context, cb telegram.CallbackQuery, orderID, name string) {
	msg := cb.Message
	key := MessageKey{ChatID: msg.Chat.ID, MessageID: msg.MessageID}

	if !p.owners.Authorize(key, cb.From.ID) {
		p.answer(ctx, cb.ID, answerOnlyOwner, true)
		p.lg.Info("refuse_unauthorized", map[string]any{"order_id": orderID, "user": name})
		return
	}
	p.answer(ctx, cb.ID, answerRefused, false)

	chat := strconv.FormatInt(msg.Chat.ID, 10)
	if err := p.tg.DeleteMessage(ctx, chat, msg.MessageID); err != nil {
		p.lg.Warn("refuse_delete_reply_failed", err, map[string]any{"order_id": orderID})
	}
	p.owners.Release(key)

	offer := msg.ReplyToMessage
	if offer == nil || offer.Chat == nil {
		p.lg.Warn("refuse_no_offer_message", nil, map[string]any{"order_id": orderID})
		return
	}

	offerChat := strconv.FormatInt(offer.Chat.ID, 10)
	p.claims.Release(MessageKey{ChatID: offer.Chat.ID, MessageID: offer.MessageID})
	if err := p.tg.DeleteMessage(ctx, offerChat, offer.MessageID); err != nil {
		p.lg.Warn("refuse_delete_offer_failed", err, map[string]any{"order_id": orderID})
	}

	republished := p.republish(ctx, orderID, offerChat)
	p.lg.Info("order_refused", map[string]any{
		"order_id": orderID, "user": name, "republished": republished,
	})
	p.states.Publish(ctx, domain.StateMessage{
		OrderID:     orderID,
		Status:      domain.StatusRefused,
		Timestamp:   p.now().UTC(),
		UserID:      &cb.From.ID,
		UserName:    name,
		Republished: &republished,
	})
}

// republish posts the stored payload as a fresh offer. Returns whether a new
// offer message was produced.
func (p *Processor) republish(ctx context.Context, orderID, fallbackChat string) bool {
	payload, found, err := p.payloads.GetPayload(ctx, orderID)
	if err != nil {
		p.lg.Warn("payload_lookup_failed", err, map[string]any{"order_id": orderID})
		return false
	}
	if !found || payload.Text == "" {
		return false
	}

	chat := payload.ChatID
	if strings.TrimSpace(chat) == "" {
		chat = fallbackChat
	}
	parseMode := payload.ParseMode
	if parseMode == "" {
		parseMode = defaultParseMode
	}
	if _, err := p.tg.SendMessage(ctx, telegram.SendRequest{
		ChatID:      chat,
		Text:        payload.Text,
		ParseMode:   parseMode,
		ReplyMarkup: payload.ReplyMarkup,
	}); err != nil {
		p.lg.Warn("republish_failed", err, map[string]any{"order_id": orderID})
		return false
	}
	return true
}

// handleGeneric acknowledges a press that drives no transition and clears
// the buttons of the pressed message when there is one.
func (p *Processor) handleGeneric(ctx context.Context, cb telegram.CallbackQuery) {
	p.answer(ctx, cb.ID, answerAccepted, false)
	msg := cb.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chat := strconv.FormatInt(msg.Chat.ID, 10)
	if err := p.tg.EditMessageReplyMarkup(ctx, chat, msg.MessageID, emptyMarkup()); err != nil {
		p.lg.Warn("clear_markup_failed", err, map[string]any{
			"chat_id": msg.Chat.ID, "message_id": msg.MessageID,
		})
	}
}

func (p *Processor) answer(ctx context.Context, callbackID, text string, alert bool) {
	if err := p.tg.AnswerCallbackQuery(ctx, callbackID, text, alert); err != nil {
		p.lg.Warn("answer_callback_failed", err, map[string]any{"callback_id": callbackID})
	}
}

func emptyMarkup() *domain.ReplyMarkup {
	return &domain.ReplyMarkup{InlineKeyboard: [][]domain.InlineKeyboardButton{}}
}

func displayName(u *telegram.User) string {
	if u == nil {
		return fallbackCourier
	}
	if u.Username != "" {
		return strings.TrimSpace(u.FirstName + " (@" + u.Username + ")")
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fallbackCourier
}
