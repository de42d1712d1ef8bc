package transcript

import (
	"regexp"
	"strings"
)

// Extractor walks a transcript and produces a Snapshot. Extraction is pure:
// the same transcript always yields the same snapshot, no I/O, no clock.
type Extractor struct {
	rules *RuleSet
}

// NewExtractor builds an extractor over a compiled rule set.
func NewExtractor(rules *RuleSet) *Extractor {
	return &Extractor{rules: rules}
}

// Default returns an extractor over the embedded English rules.
func Default() *Extractor {
	return NewExtractor(DefaultRules())
}

// Extract replays the transcript in order and derives the conversation state.
func (e *Extractor) Extract(msgs []Message) Snapshot {
	snap := NewSnapshot()

	// The slot the assistant most recently asked for. A bare refusal with no
	// slot keyword of its own refers to this.
	lastRequested := ""

	for _, msg := range msgs {
		switch msg.Role {
		case RoleUser:
			e.extractUser(msg.Content, &snap, lastRequested)
		case RoleAssistant:
			lastRequested = e.extractAssistant(msg.Content, &snap, lastRequested)
		}
	}

	snap.PendingAction = derivePending(snap)
	return snap
}

func (e *Extractor) extractUser(content string, snap *Snapshot, lastRequested string) {
	for _, rule := range e.rules.Slots {
		if m := rule.Re.FindStringSubmatch(content); m != nil {
			snap.CollectedInfo[rule.Slot] = strings.TrimSpace(m[1])
			delete(snap.InfoRefused, rule.Slot)
		}
	}
	for _, rule := range e.rules.Issues {
		if rule.Re.MatchString(content) {
			snap.CollectedInfo[SlotIssueType] = rule.Issue
			break
		}
	}

	if matchAny(e.rules.Refusals, content) {
		slot := e.refusedSlot(content, lastRequested)
		if slot != "" && snap.CollectedInfo[slot] == "" {
			snap.InfoRefused[slot] = true
		}
	}

	// Bind bare answers ("yes, it is 88990") to the slot the assistant just
	// asked for, unless the customer refused it above.
	if lastRequested != "" && snap.CollectedInfo[lastRequested] == "" && !snap.InfoRefused[lastRequested] {
		for _, rule := range e.rules.Answers {
			if rule.Slot != lastRequested {
				continue
			}
			if m := rule.Re.FindStringSubmatch(content); m != nil {
				snap.CollectedInfo[lastRequested] = strings.TrimSpace(m[1])
			}
		}
	}

	if snap.EscalationOffered && !snap.TicketCreated && matchAny(e.rules.Confirmations, content) {
		snap.EscalationConfirmed = true
	}
}

func (e *Extractor) extractAssistant(content string, snap *Snapshot, lastRequested string) string {
	if matchAny(e.rules.EscalationOffers, content) {
		snap.EscalationOffered = true
	}
	if matchAny(e.rules.TicketCreated, content) {
		snap.TicketCreated = true
	}
	if matchAny(e.rules.ScopeDeclines, content) {
		snap.OutOfScope = true
	}
	for _, rule := range e.rules.InfoRequests {
		if rule.Re.MatchString(content) {
			snap.TimesAsked[rule.Slot]++
			lastRequested = rule.Slot
		}
	}
	return lastRequested
}

// refusedSlot ties a refusal message to a slot: a slot keyword in the message
// itself wins, otherwise the refusal answers the assistant's last request.
func (e *Extractor) refusedSlot(content, lastRequested string) string {
	for _, kw := range e.rules.SlotKeywords {
		if kw.Re.MatchString(content) {
			return kw.Slot
		}
	}
	return lastRequested
}

// ExplicitConfirmation reports whether a single message is an explicit
// acceptance of escalation (an affirmative or a direct request for a human).
func (e *Extractor) ExplicitConfirmation(content string) bool {
	return matchAny(e.rules.Confirmations, content)
}

func matchAny(res []*regexp.Regexp, content string) bool {
	for _, re := range res {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

func derivePending(snap Snapshot) PendingAction {
	switch {
	case snap.EscalationConfirmed && !snap.TicketCreated:
		return PendingRaiseTicket
	case snap.SensitiveIssue() && !snap.EscalationOffered && !snap.TicketCreated:
		return PendingOfferEscalation
	default:
		return PendingNone
	}
}
