package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fernhill/portal-core/internal/audit"
	"github.com/fernhill/portal-core/internal/infrastructure/logging"
)

type fakeClient struct {
	connected bool
	failWith  error
	published []publishedMessage
}

type publishedMessage struct {
	topic   string
	payload []byte
}

func (f *fakeClient) PublishEvent(topic string, payload []byte) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.published = append(f.published, publishedMessage{topic, payload})
	return nil
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func testEntries() []audit.Entry {
	return []audit.Entry{
		{
			ID:        "aud-11111111",
			Action:    audit.ActionRoleChanged,
			ActorID:   "usr-aaaaaaaa",
			TargetID:  "usr-bbbbbbbb",
			TenantID:  "tnt-acme1234",
			Detail:    "role changed from subscriber to tenant_owner",
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:        "aud-22222222",
			Action:    audit.ActionPasswordReset,
			TargetID:  "usr-cccccccc",
			Detail:    "password reset",
			CreatedAt: time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC),
		},
	}
}

func TestPublisher_NotifyAuditEvents(t *testing.T) {
	client := &fakeClient{connected: true}
	p := &Publisher{client: client, logger: logging.Default()}

	p.NotifyAuditEvents(context.Background(), testEntries())

	if len(client.published) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(client.published))
	}

	if got := client.published[0].topic; got != "portal/events/accounts/tnt-acme1234/role_changed" {
		t.Errorf("wrong tenant topic: %q", got)
	}
	// Tenant-less entries land on the system segment.
	if got := client.published[1].topic; got != "portal/events/accounts/system/password_reset" {
		t.Errorf("wrong system topic: %q", got)
	}

	var decoded audit.Entry
	if err := json.Unmarshal(client.published[0].payload, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded.ID != "aud-11111111" || decoded.Action != audit.ActionRoleChanged {
		t.Errorf("payload mismatch: %+v", decoded)
	}
}

func TestPublisher_DropsWhenOffline(t *testing.T) {
	client := &fakeClient{connected: false}
	p := &Publisher{client: client, logger: logging.Default()}

	p.NotifyAuditEvents(context.Background(), testEntries())

	if len(client.published) != 0 {
		t.Errorf("offline publisher must drop entries, published %d", len(client.published))
	}
}

func TestPublisher_PublishFailureIsSwallowed(t *testing.T) {
	client := &fakeClient{connected: true, failWith: errors.New("broker rejected")}
	p := &Publisher{client: client, logger: logging.Default()}

	// Must not panic or surface the error.
	p.NotifyAuditEvents(context.Background(), testEntries())
}
