// Package transcript derives per-conversation state deterministically from
// the raw message history. No state is stored between turns; everything the
// turn pipeline knows about a conversation is re-extracted from the
// transcript on every request, so a crashed or restarted process loses
// nothing.
package transcript

// Message roles as they appear in a conversation transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PendingAction is the action the assistant is expected to take next,
// derived from the transcript rather than stored.
type PendingAction string

const (
	PendingNone            PendingAction = "none"
	PendingOfferEscalation PendingAction = "offer_escalation"
	PendingRaiseTicket     PendingAction = "raise_ticket"
)

// Slot names the extractor can fill.
const (
	SlotOrderID      = "order_id"
	SlotPhone        = "phone"
	SlotCustomerName = "customer_name"
	SlotIssueType    = "issue_type"
)

// Issue types that warrant offering escalation to a human agent.
var sensitiveIssues = map[string]bool{
	"damage":     true,
	"refund":     true,
	"cancel":     true,
	"wrong_item": true,
}

// Snapshot is the full derived state of a conversation.
type Snapshot struct {
	// CollectedInfo maps slot name to the most recent value the customer
	// supplied. Later mentions overwrite earlier ones.
	CollectedInfo map[string]string `json:"collected_info"`

	// InfoRefused marks slots the customer declined to provide. A refusal
	// is permanent for the conversation; the agent must not re-ask.
	InfoRefused map[string]bool `json:"info_refused"`

	// TimesAsked counts how often the assistant has requested each slot.
	TimesAsked map[string]int `json:"times_asked"`

	// EscalationOffered is true once the assistant has offered a human agent.
	EscalationOffered bool `json:"escalation_offered"`

	// EscalationConfirmed is true once the customer accepted an offered
	// escalation. A confirmation phrase with no prior offer does not count.
	EscalationConfirmed bool `json:"escalation_confirmed"`

	// TicketCreated is true once the assistant has reported a raised ticket.
	TicketCreated bool `json:"ticket_created"`

	// OutOfScope is true if the assistant has declined an off-topic request.
	OutOfScope bool `json:"out_of_scope"`

	// PendingAction is what the conversation is waiting on.
	PendingAction PendingAction `json:"pending_action"`
}

// NewSnapshot returns an empty snapshot with all maps allocated.
func NewSnapshot() Snapshot {
	return Snapshot{
		CollectedInfo: make(map[string]string),
		InfoRefused:   make(map[string]bool),
		TimesAsked:    make(map[string]int),
		PendingAction: PendingNone,
	}
}

// HasIssue reports whether an issue type has been identified.
func (s Snapshot) HasIssue() bool {
	return s.CollectedInfo[SlotIssueType] != ""
}

// SensitiveIssue reports whether the identified issue type is one that
// warrants offering escalation.
func (s Snapshot) SensitiveIssue() bool {
	return sensitiveIssues[s.CollectedInfo[SlotIssueType]]
}
