// Package mqtt provides the outbound MQTT event feed for Portal Core.
//
// Audit-worthy account mutations (role changes, password resets,
// activation changes) are published as JSON events after the owning
// database transaction commits. Downstream services subscribe to
// portal/events/accounts/# to mirror account state or drive
// notifications.
//
// # Features
//
//   - Automatic reconnection with exponential backoff
//   - Last Will and Testament for offline detection
//   - TLS support for secure broker connections
//   - Publish-only: Portal Core never subscribes
//
// # Delivery Semantics
//
// Event publication is best-effort. The database transaction is the
// source of truth; a broker outage never rolls back a committed
// mutation. Consumers needing a complete history should read the
// audit log, not the feed.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.AccountEvent(tenantID, "role_changed")
//	client.PublishEvent(topic, payload)
package mqtt
