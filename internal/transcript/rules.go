package transcript

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/Malikxolo/Customer-Support-agent/patterns"
)

// ruleFile mirrors the YAML rule document.
type ruleFile struct {
	SlotRules                 []slotRuleConfig  `yaml:"slot_rules"`
	IssueRules                []issueRuleConfig `yaml:"issue_rules"`
	AnswerRules               []slotRuleConfig  `yaml:"answer_rules"`
	RefusalRules              []patternConfig   `yaml:"refusal_rules"`
	SlotKeywords              []slotRuleConfig  `yaml:"slot_keywords"`
	ConfirmationRules         []patternConfig   `yaml:"confirmation_rules"`
	AssistantEscalationOffers []patternConfig   `yaml:"assistant_escalation_offers"`
	AssistantInfoRequests     []slotRuleConfig  `yaml:"assistant_info_requests"`
	AssistantTicketCreated    []patternConfig   `yaml:"assistant_ticket_created"`
	AssistantScopeDeclines    []patternConfig   `yaml:"assistant_scope_declines"`
}

type patternConfig struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

type slotRuleConfig struct {
	Name  string `yaml:"name"`
	Slot  string `yaml:"slot"`
	Regex string `yaml:"regex"`
}

type issueRuleConfig struct {
	Name  string `yaml:"name"`
	Issue string `yaml:"issue"`
	Regex string `yaml:"regex"`
}

// SlotRule extracts a slot value via its first capture group.
type SlotRule struct {
	Name string
	Slot string
	Re   *regexp.Regexp
}

// IssueRule tags a message with an issue type on match.
type IssueRule struct {
	Name  string
	Issue string
	Re    *regexp.Regexp
}

// RuleSet is a compiled rule table ready for extraction.
type RuleSet struct {
	Slots            []SlotRule
	Issues           []IssueRule
	Answers          []SlotRule
	Refusals         []*regexp.Regexp
	SlotKeywords     []SlotRule
	Confirmations    []*regexp.Regexp
	EscalationOffers []*regexp.Regexp
	InfoRequests     []SlotRule
	TicketCreated    []*regexp.Regexp
	ScopeDeclines    []*regexp.Regexp
}

// ParseRules parses and compiles a YAML rule document.
func ParseRules(data []byte) (*RuleSet, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	rs := &RuleSet{}
	for _, c := range rf.SlotRules {
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling slot rule %q: %w", c.Name, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("slot rule %q has no capture group", c.Name)
		}
		rs.Slots = append(rs.Slots, SlotRule{Name: c.Name, Slot: c.Slot, Re: re})
	}
	for _, c := range rf.IssueRules {
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling issue rule %q: %w", c.Name, err)
		}
		rs.Issues = append(rs.Issues, IssueRule{Name: c.Name, Issue: c.Issue, Re: re})
	}

	for _, c := range rf.AnswerRules {
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling answer rule %q: %w", c.Slot, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("answer rule %q has no capture group", c.Slot)
		}
		rs.Answers = append(rs.Answers, SlotRule{Slot: c.Slot, Re: re})
	}

	var err error
	if rs.Refusals, err = compileAll(rf.RefusalRules, "refusal"); err != nil {
		return nil, err
	}
	if rs.Confirmations, err = compileAll(rf.ConfirmationRules, "confirmation"); err != nil {
		return nil, err
	}
	if rs.EscalationOffers, err = compileAll(rf.AssistantEscalationOffers, "escalation offer"); err != nil {
		return nil, err
	}
	if rs.TicketCreated, err = compileAll(rf.AssistantTicketCreated, "ticket created"); err != nil {
		return nil, err
	}
	if rs.ScopeDeclines, err = compileAll(rf.AssistantScopeDeclines, "scope decline"); err != nil {
		return nil, err
	}

	for _, c := range rf.SlotKeywords {
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling slot keyword %q: %w", c.Slot, err)
		}
		rs.SlotKeywords = append(rs.SlotKeywords, SlotRule{Slot: c.Slot, Re: re})
	}
	for _, c := range rf.AssistantInfoRequests {
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling info request %q: %w", c.Name, err)
		}
		rs.InfoRequests = append(rs.InfoRequests, SlotRule{Name: c.Name, Slot: c.Slot, Re: re})
	}
	return rs, nil
}

func compileAll(configs []patternConfig, kind string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(configs))
	for _, c := range configs {
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling %s rule %q: %w", kind, c.Name, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// DefaultRules compiles the embedded English rule table. The embedded rules
// are covered by tests, so a compile failure here is a build defect.
func DefaultRules() *RuleSet {
	rs, err := ParseRules(patterns.SupportENYAML())
	if err != nil {
		panic(fmt.Sprintf("embedded rules invalid: %v", err))
	}
	return rs
}
