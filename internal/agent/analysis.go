// Package agent contains the turn pipeline: analyze the message, dispatch
// capabilities, compose the reply, and hand best-effort work to the
// background worker.
package agent

import (
	"github.com/Malikxolo/Customer-Support-agent/internal/tools"
)

// Analysis is the structured decision for one turn. Field names follow the
// JSON contract the reasoning model is instructed to emit.
type Analysis struct {
	InScope        bool   `json:"in_scope"`
	OutOfScopeTopic string `json:"out_of_scope_topic,omitempty"`
	Intent         string `json:"intent"`
	Sentiment      string `json:"sentiment"`
	Urgency        string `json:"urgency"`
	Deescalate     bool   `json:"deescalation_needed"`

	NeedsMoreInfo bool     `json:"needs_more_info"`
	MissingInfo   []string `json:"missing_info,omitempty"`

	UserRefusedInfo bool   `json:"user_refused_info"`
	RefusedInfoType string `json:"refused_info_type,omitempty"`
	CannotProceed   bool   `json:"cannot_proceed"`

	EscalationAlreadyConfirmed bool `json:"escalation_already_confirmed"`

	Capabilities []tools.Call `json:"tools_to_use,omitempty"`

	Rationale string `json:"rationale,omitempty"`

	// FallbackClarification marks the canned analysis used when the model
	// reply could not be parsed. The composer answers with a fixed
	// clarification instead of another reasoning call.
	FallbackClarification bool `json:"-"`

	// OfferEscalation tells the composer to offer a human agent and ask
	// for confirmation. Set by the orchestrator when it files a proposal,
	// never by the model.
	OfferEscalation bool `json:"-"`
}

// fallbackAnalysis is what a turn degrades to on unparseable model output.
// The turn never crashes or blocks on a parse failure.
func fallbackAnalysis() Analysis {
	return Analysis{
		InScope:               true,
		Sentiment:             "neutral",
		Urgency:               "normal",
		NeedsMoreInfo:         false,
		FallbackClarification: true,
	}
}
