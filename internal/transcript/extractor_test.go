package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCollectsSlots(t *testing.T) {
	ex := Default()

	snap := ex.Extract([]Message{
		{Role: RoleUser, Content: "Hi, my order ORD-1234 arrived broken. My name is Priya Sharma."},
		{Role: RoleAssistant, Content: "Sorry to hear that. Could you share your phone number?"},
		{Role: RoleUser, Content: "Sure, it's 9876543210."},
	})

	assert.Equal(t, "ORD-1234", snap.CollectedInfo[SlotOrderID])
	assert.Equal(t, "Priya Sharma", snap.CollectedInfo[SlotCustomerName])
	assert.Equal(t, "9876543210", snap.CollectedInfo[SlotPhone])
	assert.Equal(t, "damage", snap.CollectedInfo[SlotIssueType])
	assert.Equal(t, 1, snap.TimesAsked[SlotPhone])
}

func TestExtractLaterValueWins(t *testing.T) {
	ex := Default()

	snap := ex.Extract([]Message{
		{Role: RoleUser, Content: "My order id is 111222"},
		{Role: RoleUser, Content: "Sorry, I meant order id 333444"},
	})

	assert.Equal(t, "333444", snap.CollectedInfo[SlotOrderID])
}

func TestExtractRefusalWithKeyword(t *testing.T) {
	ex := Default()

	snap := ex.Extract([]Message{
		{Role: RoleUser, Content: "I want a refund for this"},
		{Role: RoleAssistant, Content: "Could you provide your order id?"},
		{Role: RoleUser, Content: "I don't have my order id"},
	})

	assert.True(t, snap.InfoRefused[SlotOrderID])
	assert.Empty(t, snap.CollectedInfo[SlotOrderID])
}

func TestExtractRefusalFallsBackToLastRequest(t *testing.T) {
	ex := Default()

	snap := ex.Extract([]Message{
		{Role: RoleAssistant, Content: "Could you share your phone number?"},
		{Role: RoleUser, Content: "No, I won't share that."},
	})

	assert.True(t, snap.InfoRefused[SlotPhone])
}

func TestExtractValueClearsEarlierRefusal(t *testing.T) {
	ex := Default()

	snap := ex.Extract([]Message{
		{Role: RoleAssistant, Content: "Could you share your phone number?"},
		{Role: RoleUser, Content: "I won't share my phone."},
		{Role: RoleAssistant, Content: "Understood, we can proceed without it."},
		{Role: RoleUser, Content: "Actually fine, it's 9123456780"},
	})

	assert.False(t, snap.InfoRefused[SlotPhone])
	assert.Equal(t, "9123456780", snap.CollectedInfo[SlotPhone])
}

func TestExtractEscalationTwoTurn(t *testing.T) {
	ex := Default()

	transcript := []Message{
		{Role: RoleUser, Content: "My order 55667 arrived damaged, I want a refund"},
	}
	snap := ex.Extract(transcript)
	require.False(t, snap.EscalationOffered)
	assert.Equal(t, PendingOfferEscalation, snap.PendingAction)

	transcript = append(transcript,
		Message{Role: RoleAssistant, Content: "I'm sorry about that. Would you like me to connect you with a human agent?"},
		Message{Role: RoleUser, Content: "Yes please"},
	)
	snap = ex.Extract(transcript)
	assert.True(t, snap.EscalationOffered)
	assert.True(t, snap.EscalationConfirmed)
	assert.Equal(t, PendingRaiseTicket, snap.PendingAction)
}

func TestExtractAffirmativeWithoutOfferIsNotConfirmation(t *testing.T) {
	ex := Default()

	snap := ex.Extract([]Message{
		{Role: RoleAssistant, Content: "Could you share your order id?"},
		{Role: RoleUser, Content: "Yes, it is 88990"},
	})

	assert.False(t, snap.EscalationConfirmed)
	assert.Equal(t, "88990", snap.CollectedInfo[SlotOrderID])
}

func TestExtractTicketCreatedEndsPendingWork(t *testing.T) {
	ex := Default()

	snap := ex.Extract([]Message{
		{Role: RoleUser, Content: "This is broken, please escalate"},
		{Role: RoleAssistant, Content: "Would you like me to escalate this to a human agent?"},
		{Role: RoleUser, Content: "Yes"},
		{Role: RoleAssistant, Content: "Done. A support ticket TKT-831 has been created for you."},
	})

	assert.True(t, snap.TicketCreated)
	assert.Equal(t, PendingNone, snap.PendingAction)
}

func TestExtractOutOfScope(t *testing.T) {
	ex := Default()

	snap := ex.Extract([]Message{
		{Role: RoleUser, Content: "Can you write my homework essay?"},
		{Role: RoleAssistant, Content: "That's outside my scope, I can only help with orders and support issues."},
	})

	assert.True(t, snap.OutOfScope)
}

func TestExtractIsPure(t *testing.T) {
	ex := Default()
	transcript := []Message{
		{Role: RoleUser, Content: "Order 4242 was damaged, my name is Ana"},
		{Role: RoleAssistant, Content: "Would you like me to escalate this to an agent?"},
		{Role: RoleUser, Content: "yes"},
	}

	first := ex.Extract(transcript)
	second := ex.Extract(transcript)
	assert.Equal(t, first, second)
}

func TestExplicitConfirmation(t *testing.T) {
	ex := Default()

	assert.True(t, ex.ExplicitConfirmation("yes please"))
	assert.True(t, ex.ExplicitConfirmation("please escalate this"))
	assert.True(t, ex.ExplicitConfirmation("I want to talk to an agent"))
	assert.False(t, ex.ExplicitConfirmation("what is the status of my order"))
	assert.False(t, ex.ExplicitConfirmation("that yes man annoyed me"))
}

func TestParseRulesRejectsBadRegex(t *testing.T) {
	_, err := ParseRules([]byte("slot_rules:\n  - name: bad\n    slot: x\n    regex: '(['\n"))
	require.Error(t, err)
}

func TestParseRulesRequiresCaptureGroup(t *testing.T) {
	_, err := ParseRules([]byte("slot_rules:\n  - name: nocap\n    slot: x\n    regex: 'abc'\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture group")
}
