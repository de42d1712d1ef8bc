package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Canonical capability names used by the analyzer.
const (
	ToolOrderStatus  = "order_status"
	ToolFAQSearch    = "faq_search"
	ToolCreateTicket = "create_ticket"
)

// OrderRecord is what the order backend knows about an order.
type OrderRecord struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Item     string `json:"item"`
	ETA      string `json:"eta,omitempty"`
	Carrier  string `json:"carrier,omitempty"`
	Tracking string `json:"tracking,omitempty"`
}

// OrderStatusTool looks orders up in an in-memory table. Stands in for the
// order management backend in local and test deployments.
type OrderStatusTool struct {
	mu     sync.RWMutex
	orders map[string]OrderRecord
}

// NewOrderStatusTool seeds the tool with records.
func NewOrderStatusTool(records ...OrderRecord) *OrderStatusTool {
	t := &OrderStatusTool{orders: make(map[string]OrderRecord)}
	for _, r := range records {
		t.orders[normalizeOrderID(r.OrderID)] = r
	}
	return t
}

func (t *OrderStatusTool) Name() string        { return ToolOrderStatus }
func (t *OrderStatusTool) Description() string { return "Look up the status of an order by its id" }

func (t *OrderStatusTool) RequiredParams() []string { return []string{"order_id"} }

func (t *OrderStatusTool) Execute(_ context.Context, params map[string]any) (any, error) {
	id, _ := params["order_id"].(string)
	t.mu.RLock()
	rec, ok := t.orders[normalizeOrderID(id)]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("order %q not found", id)
	}
	return rec, nil
}

func normalizeOrderID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// FAQEntry is one knowledge-base article.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Keywords []string
}

// FAQSearchTool does keyword search over a static knowledge base.
type FAQSearchTool struct {
	entries []FAQEntry
}

// NewFAQSearchTool builds the tool over the given entries.
func NewFAQSearchTool(entries ...FAQEntry) *FAQSearchTool {
	return &FAQSearchTool{entries: entries}
}

func (t *FAQSearchTool) Name() string        { return ToolFAQSearch }
func (t *FAQSearchTool) Description() string { return "Search support articles for a topic" }

func (t *FAQSearchTool) RequiredParams() []string { return []string{"query"} }

func (t *FAQSearchTool) Execute(_ context.Context, params map[string]any) (any, error) {
	query, _ := params["query"].(string)
	q := strings.ToLower(query)

	var hits []FAQEntry
	for _, e := range t.entries {
		if strings.Contains(strings.ToLower(e.Question), q) {
			hits = append(hits, e)
			continue
		}
		for _, kw := range e.Keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				hits = append(hits, e)
				break
			}
		}
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("no articles matched %q", query)
	}
	return hits, nil
}

// Ticket is a raised support ticket.
type Ticket struct {
	TicketID  string    `json:"ticket_id"`
	OrderID   string    `json:"order_id,omitempty"`
	Issue     string    `json:"issue"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTicketTool opens support tickets. Irreversible: the orchestrator
// only dispatches it after the customer has confirmed escalation.
type CreateTicketTool struct {
	mu      sync.Mutex
	tickets []Ticket

	now func() time.Time
}

// NewCreateTicketTool returns an empty ticket backend.
func NewCreateTicketTool() *CreateTicketTool {
	return &CreateTicketTool{now: time.Now}
}

func (t *CreateTicketTool) Name() string        { return ToolCreateTicket }
func (t *CreateTicketTool) Description() string { return "Raise a support ticket for a human agent" }

func (t *CreateTicketTool) RequiredParams() []string { return []string{"issue"} }

func (t *CreateTicketTool) Execute(_ context.Context, params map[string]any) (any, error) {
	issue, _ := params["issue"].(string)
	orderID, _ := params["order_id"].(string)
	priority, _ := params["priority"].(string)
	if priority == "" {
		priority = "normal"
	}

	ticket := Ticket{
		TicketID:  "TKT-" + strings.ToUpper(uuid.NewString()[:8]),
		OrderID:   orderID,
		Issue:     issue,
		Priority:  priority,
		CreatedAt: t.now(),
	}

	t.mu.Lock()
	t.tickets = append(t.tickets, ticket)
	t.mu.Unlock()
	return ticket, nil
}

// Tickets returns a copy of every ticket raised so far.
func (t *CreateTicketTool) Tickets() []Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Ticket, len(t.tickets))
	copy(out, t.tickets)
	return out
}
