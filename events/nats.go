// Package events publishes domain events to NATS as JSON.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	natspkg "github.com/nats-io/nats.go"
)

type Publisher struct {
	nc *natspkg.Conn
}

func NewPublisher(url, name string) (*Publisher, error) {
	nc, err := natspkg.Connect(url,
		natspkg.Name(name),
		natspkg.MaxReconnects(-1),
		natspkg.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc}, nil
}

func (p *Publisher) IsConnected() bool {
	return p.nc != nil && p.nc.Status() == natspkg.CONNECTED
}

// Close flushes pending messages before closing the connection.
func (p *Publisher) Close() {
	_ = p.nc.Drain()
}

func (p *Publisher) Publish(ctx context.Context, subject string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := encode(subject, event)
	if err != nil {
		return err
	}
	return p.nc.PublishMsg(msg)
}

func encode(subject string, event any) (*natspkg.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", subject, err)
	}
	msg := natspkg.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	return msg, nil
}
