package notify

import (
	"context"
	"fmt"
	"time"

	stan "github.com/nats-io/stan.go"
)

// StanConfig addresses a NATS Streaming cluster.
type StanConfig struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
}

// StanNotifier publishes notifications to a NATS Streaming subject and waits for the ack.
type StanNotifier struct {
	conn    stan.Conn
	subject string
}

func DialStan(cfg StanConfig) (*StanNotifier, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("checkout-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(cfg.ClusterID, clientID, stan.NatsURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("notify: stan connect: %w", err)
	}
	return &StanNotifier{conn: sc, subject: cfg.Subject}, nil
}

func (n *StanNotifier) NotifyOrderPlaced(ctx context.Context, orderID int64, recipientEmail string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encode(orderID, recipientEmail)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, b); err != nil {
		return fmt.Errorf("notify: stan publish: %w", err)
	}
	return nil
}

func (n *StanNotifier) Close() error {
	return n.conn.Close()
}
