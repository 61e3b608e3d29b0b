// Package notify publishes ingested attendance records to downstream
// consumers.  Delivery is best-effort: a broker outage never disturbs
// ingestion.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/attendlabs/attendd/internal/attend/types"
)

// MQTTNotifier publishes each record as JSON to a single topic at QoS 0.
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
	logger *log.Logger
}

// NewMQTTNotifier connects to the broker and returns a ready notifier.
func NewMQTTNotifier(brokerURL, clientID, topic string, logger *log.Logger) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", brokerURL, token.Error())
	}

	return &MQTTNotifier{client: client, topic: topic, logger: logger}, nil
}

// NotifyRecord implements service.Notifier.
func (n *MQTTNotifier) NotifyRecord(rec types.Record) {
	payload, err := json.Marshal(rec)
	if err != nil {
		n.logger.Printf("marshal record for publish: %v", err)
		return
	}

	token := n.client.Publish(n.topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		n.logger.Printf("publish record person=%s: %v", rec.PersonID, token.Error())
	}
}

// Close disconnects from the broker, allowing in-flight publishes a short
// grace period.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
