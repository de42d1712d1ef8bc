package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Malikxolo/Customer-Support-agent/internal/transcript"
)

const analysisSystemPrompt = `You are the reasoning engine of a customer support agent for an online store.
You never reply to the customer directly. You emit exactly one JSON object describing how to handle the turn.`

const analysisFormat = `Reply with JSON only, no prose after the object:
{
  "in_scope": bool,
  "out_of_scope_topic": "topic if not in scope",
  "intent": "short intent label",
  "sentiment": "positive|neutral|frustrated|angry",
  "urgency": "low|normal|high",
  "deescalation_needed": bool,
  "needs_more_info": bool,
  "missing_info": ["slot names still required"],
  "user_refused_info": bool,
  "refused_info_type": "slot name",
  "cannot_proceed": bool,
  "escalation_already_confirmed": bool,
  "tools_to_use": [{"tool": "name", "parameters": {}}],
  "rationale": "one sentence"
}

Rules:
- Scope first: the agent handles orders, deliveries, returns, refunds, product questions and support tickets. Anything else is out of scope: set in_scope=false, tools_to_use=[], needs_more_info=false.
- If needs_more_info is true, tools_to_use MUST be empty. Never guess missing required parameters.
- missing_info lists only slots that are neither already collected nor refused. If a required slot was refused, set cannot_proceed=true instead of asking again.
- Include the create_ticket tool ONLY when the conversation state says escalation is already confirmed, or the current message itself is an explicit confirmation. Never otherwise.
- Use only the listed capabilities and their listed parameters.`

// buildAnalysisPrompt renders the user-side content of the single analysis
// call: conversation state, capability list, recent transcript, and the
// current message.
func buildAnalysisPrompt(message string, snap transcript.Snapshot, tail []transcript.Message, toolLines []string) string {
	var b strings.Builder

	b.WriteString("Conversation state:\n")
	b.WriteString(renderSnapshot(snap))

	b.WriteString("\nAvailable capabilities:\n")
	for _, line := range toolLines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(tail) > 0 {
		b.WriteString("\nRecent transcript:\n")
		for _, msg := range tail {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
	}

	fmt.Fprintf(&b, "\nCurrent customer message: %s\n\n", message)
	b.WriteString(analysisFormat)
	return b.String()
}

func renderSnapshot(snap transcript.Snapshot) string {
	var b strings.Builder

	if len(snap.CollectedInfo) > 0 {
		info, _ := json.Marshal(snap.CollectedInfo)
		fmt.Fprintf(&b, "- collected_info: %s\n", info)
	} else {
		b.WriteString("- collected_info: none yet\n")
	}
	if len(snap.InfoRefused) > 0 {
		refused := make([]string, 0, len(snap.InfoRefused))
		for slot := range snap.InfoRefused {
			refused = append(refused, slot)
		}
		fmt.Fprintf(&b, "- refused_info: %s (do not ask again)\n", strings.Join(refused, ", "))
	}
	fmt.Fprintf(&b, "- escalation_offered: %t\n", snap.EscalationOffered)
	fmt.Fprintf(&b, "- escalation_confirmed: %t\n", snap.EscalationConfirmed)
	fmt.Fprintf(&b, "- ticket_created: %t\n", snap.TicketCreated)
	fmt.Fprintf(&b, "- pending_action: %s\n", snap.PendingAction)
	return b.String()
}

const composerSystemPrompt = `You are a customer support agent for an online store. Be warm, concise and concrete.
Never mention internal tools, analyses or errors. Never invent order details that are not in the tool data.`

// buildComposerPrompt renders the single response-composition call.
func buildComposerPrompt(message string, analysis Analysis, snap transcript.Snapshot, toolSummary, language string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Customer message: %s\n\n", message)
	fmt.Fprintf(&b, "Customer sentiment: %s, urgency: %s.\n", analysis.Sentiment, analysis.Urgency)

	if analysis.Deescalate {
		b.WriteString("The customer is upset. Open with a short, sincere acknowledgement before anything else.\n")
	}

	switch {
	case !analysis.InScope:
		b.WriteString("The request is outside what this agent handles. Politely decline and state what you can help with (orders, deliveries, returns, refunds, tickets).\n")
	case analysis.CannotProceed:
		fmt.Fprintf(&b, "The customer declined to share %s, which is required. Explain gently that you cannot proceed without it, and do not ask for it again.\n", analysis.RefusedInfoType)
	case analysis.NeedsMoreInfo:
		fmt.Fprintf(&b, "Ask only for the following missing details, nothing else: %s.\n", strings.Join(analysis.MissingInfo, ", "))
	}

	if toolSummary != "" {
		b.WriteString("\nTool data (the only facts you may state):\n")
		b.WriteString(toolSummary)
		b.WriteString("\n")
	}

	if analysis.OfferEscalation {
		b.WriteString("Offer to connect the customer with a human agent and ask them to confirm before you do anything.\n")
	}

	if snap.EscalationConfirmed && !snap.TicketCreated {
		b.WriteString("The customer confirmed escalation. If a ticket appears in the tool data, confirm it with its id.\n")
	}

	if language != "" && language != "en" {
		fmt.Fprintf(&b, "\nWrite the reply in the customer's language (%s).\n", language)
	}

	b.WriteString("\nWrite the reply to the customer now. Plain text, no markdown, at most four sentences.")
	return b.String()
}

const languagePrompt = `Identify the language of this customer message. Reply with JSON only: {"language": "two-letter ISO 639-1 code"}.

Message: %s`
