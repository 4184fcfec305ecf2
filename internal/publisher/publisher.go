package publisher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"order-relay/internal/config"
	"order-relay/internal/connections/rabbitmq"
	"order-relay/internal/domain"
	"order-relay/internal/logger"
)

// Result reports the outcome of a best-effort publish. Callers only log
// failures; nothing upstream ever aborts on a Result with Err set.
type Result struct {
	Sent bool
	Err  error
}

type StatePublisher interface {
	Publish(ctx context.Context, msg domain.StateMessage) Result
}

// RabbitMQ publishes lifecycle events to a durable queue. The connection is
// established lazily on first publish and re-established when it drops, so a
// broker outage never blocks startup or a callback flow.
type RabbitMQ struct {
	cfg config.RabbitMQ
	lg  *logger.Logger

	mu     sync.Mutex
	client *rabbitmq.Client
}

func NewRabbitMQ(cfg config.RabbitMQ, lg *logger.Logger) *RabbitMQ {
	return &RabbitMQ{cfg: cfg, lg: lg}
}

func (p *RabbitMQ) Publish(ctx context.Context, msg domain.StateMessage) Result {
	if !p.cfg.Enable {
		return Result{Sent: false}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return Result{Sent: false, Err: err}
	}

	client, err := p.ensure()
	if err != nil {
		p.lg.Warn("rabbitmq_connect_failed", err, map[string]any{"order_id": msg.OrderID})
		return Result{Sent: false, Err: err}
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Publish(pctx, p.cfg.Queue, body); err != nil {
		p.lg.Warn("state_publish_failed", err, map[string]any{
			"order_id": msg.OrderID, "status": msg.Status,
		})
		p.drop()
		return Result{Sent: false, Err: err}
	}
	return Result{Sent: true}
}

func (p *RabbitMQ) ensure() (*rabbitmq.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil && p.client.Ping() == nil {
		return p.client, nil
	}
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	client, err := rabbitmq.Dial(p.cfg)
	if err != nil {
		return nil, err
	}
	if err := client.DeclareQueue(p.cfg.Queue); err != nil {
		client.Close()
		return nil, err
	}
	p.client = client
	return client, nil
}

func (p *RabbitMQ) drop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

func (p *RabbitMQ) Close() {
	p.drop()
}
