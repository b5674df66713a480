package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: list
	// membership, supply changes and escrow resolutions.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers changes to who may do what: role grants,
	// pause state and logic upgrades.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine value movement and allowance updates.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted after a state change commits. Keep it transport-agnostic
// so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID     `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// Subject is the primary acted-upon address (hex), when there is one.
	Subject string `json:"subject,omitempty"`
	// ActorID is the acting address (hex).
	ActorID   string            `json:"actor_id"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

type AuditEvent string

const (
	// Role events
	EventRoleAdded   AuditEvent = "role_added"
	EventRoleRemoved AuditEvent = "role_removed"

	// Whitelist events
	EventAddressAddedToWhitelist     AuditEvent = "address_added_to_whitelist"
	EventAddressRemovedFromWhitelist AuditEvent = "address_removed_from_whitelist"
	EventOutboundWhitelistUpdated    AuditEvent = "outbound_whitelist_updated"
	EventWhitelistEnabledUpdated     AuditEvent = "whitelist_enabled_updated"

	// Blacklist events
	EventAddressAddedToBlacklist     AuditEvent = "address_added_to_blacklist"
	EventAddressRemovedFromBlacklist AuditEvent = "address_removed_from_blacklist"
	EventBlacklistEnabledUpdated     AuditEvent = "blacklist_enabled_updated"

	// Restriction switch events
	EventRestrictionsDisabled AuditEvent = "restrictions_disabled"
	EventRestrictionsEnabled  AuditEvent = "restrictions_enabled"

	// Pause events
	EventPaused   AuditEvent = "paused"
	EventUnpaused AuditEvent = "unpaused"

	// Supply events
	EventMint   AuditEvent = "mint"
	EventBurn   AuditEvent = "burn"
	EventRevoke AuditEvent = "revoke"

	// Movement events
	EventTransfer AuditEvent = "transfer"
	EventApproval AuditEvent = "approval"

	// Escrow events
	EventTransferProposalUpdated AuditEvent = "transfer_proposal_updated"

	// Upgrade events
	EventCodeAddressUpdated AuditEvent = "code_address_updated"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAddressAddedToWhitelist:     CategoryCompliance,
	EventAddressRemovedFromWhitelist: CategoryCompliance,
	EventOutboundWhitelistUpdated:    CategoryCompliance,
	EventWhitelistEnabledUpdated:     CategoryCompliance,
	EventAddressAddedToBlacklist:     CategoryCompliance,
	EventAddressRemovedFromBlacklist: CategoryCompliance,
	EventBlacklistEnabledUpdated:     CategoryCompliance,
	EventRestrictionsDisabled:        CategoryCompliance,
	EventRestrictionsEnabled:         CategoryCompliance,
	EventMint:                        CategoryCompliance,
	EventBurn:                        CategoryCompliance,
	EventRevoke:                      CategoryCompliance,
	EventTransferProposalUpdated:     CategoryCompliance,

	EventRoleAdded:          CategorySecurity,
	EventRoleRemoved:        CategorySecurity,
	EventPaused:             CategorySecurity,
	EventUnpaused:           CategorySecurity,
	EventCodeAddressUpdated: CategorySecurity,

	EventTransfer: CategoryOperations,
	EventApproval: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
