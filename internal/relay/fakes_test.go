package relay

import (
	"context"
	"sync"

	"order-relay/internal/domain"
	"order-relay/internal/publisher"
	"order-relay/internal/telegram"
)

type answerCall struct {
	ID    string
	Text  string
	Alert bool
}

type messageCall struct {
	ChatID    string
	MessageID int
	Text      string
}

type fakeTelegram struct {
	mu sync.Mutex

	nextMessageID int
	answers       []answerCall
	sent          []telegram.SendRequest
	sentIDs       []int
	edits         []messageCall
	markupClears  []messageCall
	deletes       []messageCall

	failSend       error
	failEditMarkup error
	failEditText   error
	failDelete     error
}

func (f *fakeTelegram) SendMessage(_ context.Context, req telegram.SendRequest) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend != nil {
		return 0, f.failSend
	}
	f.nextMessageID++
	id := 100 + f.nextMessageID
	f.sent = append(f.sent, req)
	f.sentIDs = append(f.sentIDs, id)
	return id, nil
}

func (f *fakeTelegram) EditMessageText(_ context.Context, chatID string, messageID int, text string, _ *domain.ReplyMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEditText != nil {
		return f.failEditText
	}
	f.edits = append(f.edits, messageCall{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (f *fakeTelegram) EditMessageReplyMarkup(_ context.Context, chatID string, messageID int, _ *domain.ReplyMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEditMarkup != nil {
		return f.failEditMarkup
	}
	f.markupClears = append(f.markupClears, messageCall{ChatID: chatID, MessageID: messageID})
	return nil
}

func (f *fakeTelegram) DeleteMessage(_ context.Context, chatID string, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deletes = append(f.deletes, messageCall{ChatID: chatID, MessageID: messageID})
	return nil
}

func (f *fakeTelegram) AnswerCallbackQuery(_ context.Context, callbackID, text string, showAlert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answerCall{ID: callbackID, Text: text, Alert: showAlert})
	return nil
}

func (f *fakeTelegram) GetUpdates(context.Context, int64, int) ([]telegram.Update, error) {
	return nil, nil
}

func (f *fakeTelegram) alertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.answers {
		if a.Alert {
			n++
		}
	}
	return n
}

type fakeStore struct {
	mu        sync.Mutex
	payloads  map[string]domain.OrderPayload
	locations map[string]domain.MessageLocation
	getErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payloads:  make(map[string]domain.OrderPayload),
		locations: make(map[string]domain.MessageLocation),
	}
}

func (f *fakeStore) SavePayload(_ context.Context, orderID string, p domain.OrderPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[orderID] = p
	return nil
}

func (f *fakeStore) GetPayload(_ context.Context, orderID string) (domain.OrderPayload, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.OrderPayload{}, false, f.getErr
	}
	p, ok := f.payloads[orderID]
	return p, ok, nil
}

func (f *fakeStore) SaveLocation(_ context.Context, orderID string, loc domain.MessageLocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations[orderID] = loc
	return nil
}

func (f *fakeStore) GetLocation(_ context.Context, orderID string) (domain.MessageLocation, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc, ok := f.locations[orderID]
	return loc, ok, nil
}

func (f *fakeStore) Delete(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.payloads, orderID)
	delete(f.locations, orderID)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.StateMessage
}

func (f *fakePublisher) Publish(_ context.Context, msg domain.StateMessage) publisher.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return publisher.Result{Sent: true}
}

func (f *fakePublisher) byStatus(status string) []domain.StateMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StateMessage
	for _, e := range f.events {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}
