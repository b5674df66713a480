package token

import (
	"math/big"
	"time"

	"ledgerguard/pkg/domain"
	audit "ledgerguard/pkg/platform/audit"
)

// Call is the per-operation context: who is acting, when, and which events
// the operation produced. Events are published only after the operation
// commits and the service lock is released.
type Call struct {
	Caller    domain.Address
	RequestID string
	Now       time.Time

	events []audit.Event
}

// Events returns the events recorded so far.
func (c *Call) Events() []audit.Event {
	return c.events
}

func (c *Call) record(action audit.AuditEvent, subject domain.Address, details map[string]string) {
	e := audit.Event{
		Category:  action.Category(),
		Timestamp: c.Now,
		Action:    string(action),
		ActorID:   c.Caller.Hex(),
		RequestID: c.RequestID,
		Details:   details,
	}
	if !domain.IsZero(subject) {
		e.Subject = subject.Hex()
	}
	c.events = append(c.events, e)
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
