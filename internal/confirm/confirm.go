// Package confirm holds pending side-effecting actions until the customer
// explicitly approves them. An action is proposed with a one-time token; the
// follow-up turn resolves the token and only then may the action execute.
//
// Proposals live in the shared cache store under the pending_confirm
// namespace, so expiry and sweeping follow the cache's TTL semantics and an
// expired proposal is simply absent.
package confirm

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
)

const keyPrefix = "pending_confirm:"

var (
	// ErrUnknownToken means the token was never issued, already resolved,
	// superseded, cancelled, or expired.
	ErrUnknownToken = errors.New("unknown confirmation token")

	// ErrOwnerMismatch means the token exists but belongs to another owner.
	ErrOwnerMismatch = errors.New("confirmation owner mismatch")
)

// Action is a side-effecting operation awaiting approval.
type Action struct {
	Kind    string         `json:"kind"`
	Params  map[string]any `json:"params,omitempty"`
	Summary string         `json:"summary"`
}

// Proposal is a pending action with its one-time token.
type Proposal struct {
	Token     string    `json:"token"`
	Owner     string    `json:"owner"`
	Action    Action    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store keeps at most one live proposal per owner in the cache. Proposing
// again supersedes the previous one; resolving removes the proposal whether
// or not the action then succeeds.
type Store struct {
	cache *cache.Store
	ttl   time.Duration
}

// NewStore creates a store whose proposals expire after ttl.
func NewStore(c *cache.Store, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// Propose registers action for owner and returns the new proposal. Any prior
// proposal by the same owner is dropped; a stale "yes" can never trigger a
// superseded action.
func (s *Store) Propose(owner string, action Action) *Proposal {
	s.CancelAll(owner)

	now := time.Now()
	p := &Proposal{
		Token:     uuid.NewString(),
		Owner:     owner,
		Action:    action,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.cache.Set(keyPrefix+p.Token, *p, s.ttl)
	return p
}

// Resolve consumes the token and returns its proposal. A token never
// resolves twice; an expired proposal is indistinguishable from an unknown
// one.
func (s *Store) Resolve(owner, token string) (*Proposal, error) {
	v, ok := s.cache.Get(keyPrefix + token)
	if !ok {
		return nil, ErrUnknownToken
	}
	p, ok := v.(Proposal)
	if !ok {
		return nil, ErrUnknownToken
	}
	if p.Owner != owner {
		return nil, ErrOwnerMismatch
	}
	s.cache.Delete(keyPrefix + token)
	return &p, nil
}

// ResolveForOwner consumes the owner's pending proposal, whatever its token.
// Used when the customer confirms in natural language instead of echoing a
// token.
func (s *Store) ResolveForOwner(owner string) (*Proposal, error) {
	keys := s.cache.Scan(ownedBy(owner))
	if len(keys) == 0 {
		return nil, ErrUnknownToken
	}
	return s.Resolve(owner, strings.TrimPrefix(keys[0], keyPrefix))
}

// Pending returns the owner's live proposal without consuming it.
func (s *Store) Pending(owner string) (*Proposal, bool) {
	keys := s.cache.Scan(ownedBy(owner))
	if len(keys) == 0 {
		return nil, false
	}
	v, ok := s.cache.Get(keys[0])
	if !ok {
		return nil, false
	}
	p, ok := v.(Proposal)
	if !ok {
		return nil, false
	}
	return &p, true
}

// CancelAll drops every pending proposal for owner and reports how many.
func (s *Store) CancelAll(owner string) int {
	keys := s.cache.Scan(ownedBy(owner))
	for _, k := range keys {
		s.cache.Delete(k)
	}
	return len(keys)
}

func ownedBy(owner string) func(key string, value any) bool {
	return func(key string, value any) bool {
		if !strings.HasPrefix(key, keyPrefix) {
			return false
		}
		p, ok := value.(Proposal)
		return ok && p.Owner == owner
	}
}
