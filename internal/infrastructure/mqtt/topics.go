package mqtt

import "fmt"

// Topic prefixes for the Portal Core event feed.
//
// Account events use the scheme: portal/events/accounts/{tenant}/{action}
// Accounts without a tenant (superadmin, admin) publish under the
// reserved segment "system".
const (
	// TopicPrefixEvents is the base for all event topics.
	TopicPrefixEvents = "portal/events"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "portal/system"

	// TenantSegmentSystem is the tenant segment used for accounts
	// that belong to no tenant.
	TenantSegmentSystem = "system"
)

// Topics provides builders for Portal Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.AccountEvent("tnt-4f21ab09", "role_changed")
//	// Returns: "portal/events/accounts/tnt-4f21ab09/role_changed"
type Topics struct{}

// AccountEvent returns the topic for a single account mutation event.
// Pass an empty tenantID for accounts outside any tenant.
//
// Example: portal/events/accounts/tnt-4f21ab09/password_reset
func (Topics) AccountEvent(tenantID, action string) string {
	if tenantID == "" {
		tenantID = TenantSegmentSystem
	}
	return fmt.Sprintf("%s/accounts/%s/%s", TopicPrefixEvents, tenantID, action)
}

// SystemStatus returns the service status topic.
//
// Example: portal/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllAccountEvents returns a pattern matching every account event.
//
// Pattern: portal/events/accounts/+/+
func (Topics) AllAccountEvents() string {
	return fmt.Sprintf("%s/accounts/+/+", TopicPrefixEvents)
}

// TenantAccountEvents returns a pattern matching all account events
// for one tenant.
//
// Pattern: portal/events/accounts/tnt-4f21ab09/+
func (Topics) TenantAccountEvents(tenantID string) string {
	if tenantID == "" {
		tenantID = TenantSegmentSystem
	}
	return fmt.Sprintf("%s/accounts/%s/+", TopicPrefixEvents, tenantID)
}
