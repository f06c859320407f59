// Package events publishes committed audit entries to the MQTT bus so
// external consumers (dashboards, SIEM forwarders, tenant webhook
// bridges) can react to privilege changes without polling the trail.
//
// Delivery is best effort. The database is the source of truth: a
// failed publish is logged and dropped, never surfaced to the caller
// and never retried here.
package events

import (
	"context"
	"encoding/json"

	"github.com/fernhill/portal-core/internal/audit"
	"github.com/fernhill/portal-core/internal/infrastructure/logging"
	"github.com/fernhill/portal-core/internal/infrastructure/mqtt"
)

// publisher is the slice of the MQTT client the event bridge needs.
type publisher interface {
	PublishEvent(topic string, payload []byte) error
	IsConnected() bool
}

// Publisher forwards audit entries to account event topics.
type Publisher struct {
	client publisher
	logger *logging.Logger
	topics mqtt.Topics
}

// NewPublisher creates an event publisher over a connected MQTT client.
func NewPublisher(client *mqtt.Client, logger *logging.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With("component", "events"),
	}
}

// NotifyAuditEvents publishes one message per entry. Entries without
// a tenant land on the system segment of the topic tree.
func (p *Publisher) NotifyAuditEvents(_ context.Context, entries []audit.Entry) {
	if !p.client.IsConnected() {
		p.logger.Debug("event bus offline, dropping entries", "count", len(entries))
		return
	}

	for _, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			p.logger.Error("marshalling audit entry", "entry_id", entry.ID, "error", err)
			continue
		}

		topic := p.topics.AccountEvent(entry.TenantID, string(entry.Action))
		if err := p.client.PublishEvent(topic, payload); err != nil {
			p.logger.Warn("publishing audit event",
				"entry_id", entry.ID,
				"topic", topic,
				"error", err)
		}
	}
}
