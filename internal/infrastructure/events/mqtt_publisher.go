package events

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/order"
	"storefront/pkg/mqtt"
)

// jsonPublisher is the part of the MQTT client the publisher needs.
type jsonPublisher interface {
	PublishJSON(topic string, qos byte, retained bool, v interface{}) error
}

// MQTTPublisher publishes order status events as retained QoS 1 messages, so a late
// subscriber still sees the latest status of an order.
type MQTTPublisher struct {
	client      jsonPublisher
	topicPrefix string
}

func NewMQTTPublisher(client jsonPublisher, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topicPrefix: topicPrefix}
}

// ConnectMQTT dials the configured broker.
func ConnectMQTT(cfg config.MQTTConfig) (*mqtt.Client, error) {
	client := mqtt.NewClient(&mqtt.Config{
		Broker:               cfg.Broker,
		ClientID:             cfg.ClientID,
		Username:             cfg.Username,
		Password:             cfg.Password,
		CleanSession:         true,
		KeepAlive:            30,
		ConnectTimeout:       10,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
	})
	if err := client.Connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (p *MQTTPublisher) Topic(orderID fmt.Stringer) string {
	return fmt.Sprintf("%s/orders/%s/status", p.topicPrefix, orderID)
}

func (p *MQTTPublisher) Publish(_ context.Context, event order.StatusEvent) error {
	if err := p.client.PublishJSON(p.Topic(event.OrderID), 1, true, event); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}
