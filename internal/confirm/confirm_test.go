package confirm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
)

func newTestStore() *Store {
	return NewStore(cache.New(), 10*time.Minute)
}

func TestProposeAndResolve(t *testing.T) {
	s := newTestStore()

	p := s.Propose("conv-1", Action{Kind: "raise_ticket", Summary: "escalate damaged order"})
	require.NotEmpty(t, p.Token)

	got, err := s.Resolve("conv-1", p.Token)
	require.NoError(t, err)
	assert.Equal(t, "raise_ticket", got.Action.Kind)

	// Read-and-delete: the token is gone.
	_, err = s.Resolve("conv-1", p.Token)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestProposeSupersedes(t *testing.T) {
	s := newTestStore()

	first := s.Propose("conv-1", Action{Kind: "raise_ticket"})
	second := s.Propose("conv-1", Action{Kind: "cancel_order"})

	_, err := s.Resolve("conv-1", first.Token)
	assert.ErrorIs(t, err, ErrUnknownToken)

	got, err := s.Resolve("conv-1", second.Token)
	require.NoError(t, err)
	assert.Equal(t, "cancel_order", got.Action.Kind)
}

func TestProposalsIndependentPerOwner(t *testing.T) {
	s := newTestStore()

	s.Propose("conv-1", Action{Kind: "raise_ticket"})
	s.Propose("conv-2", Action{Kind: "cancel_order"})

	got, err := s.ResolveForOwner("conv-1")
	require.NoError(t, err)
	assert.Equal(t, "raise_ticket", got.Action.Kind)

	// conv-2's proposal is untouched.
	p, ok := s.Pending("conv-2")
	require.True(t, ok)
	assert.Equal(t, "cancel_order", p.Action.Kind)
}

func TestResolveOwnerMismatch(t *testing.T) {
	s := newTestStore()

	p := s.Propose("conv-1", Action{Kind: "raise_ticket"})
	_, err := s.Resolve("conv-2", p.Token)
	assert.ErrorIs(t, err, ErrOwnerMismatch)

	// A mismatched resolve does not consume the proposal.
	got, err := s.Resolve("conv-1", p.Token)
	require.NoError(t, err)
	assert.Equal(t, "raise_ticket", got.Action.Kind)
}

func TestResolveExpired(t *testing.T) {
	s := NewStore(cache.New(), time.Nanosecond)

	p := s.Propose("conv-1", Action{Kind: "raise_ticket"})
	time.Sleep(time.Millisecond)

	// An expired proposal is indistinguishable from an unknown one.
	_, err := s.Resolve("conv-1", p.Token)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestResolveForOwner(t *testing.T) {
	s := newTestStore()

	s.Propose("conv-1", Action{Kind: "raise_ticket"})
	got, err := s.ResolveForOwner("conv-1")
	require.NoError(t, err)
	assert.Equal(t, "raise_ticket", got.Action.Kind)

	_, err = s.ResolveForOwner("conv-1")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestPendingDoesNotConsume(t *testing.T) {
	s := newTestStore()

	s.Propose("conv-1", Action{Kind: "raise_ticket"})
	p, ok := s.Pending("conv-1")
	require.True(t, ok)
	assert.Equal(t, "raise_ticket", p.Action.Kind)

	_, ok = s.Pending("conv-1")
	assert.True(t, ok)
}

func TestCancelAll(t *testing.T) {
	s := newTestStore()

	s.Propose("conv-1", Action{Kind: "raise_ticket"})
	assert.Equal(t, 1, s.CancelAll("conv-1"))
	assert.Equal(t, 0, s.CancelAll("conv-1"))

	_, ok := s.Pending("conv-1")
	assert.False(t, ok)
}

func TestSweepDropsExpiredProposals(t *testing.T) {
	c := cache.New()
	s := NewStore(c, time.Nanosecond)

	s.Propose("conv-1", Action{Kind: "raise_ticket"})
	s.Propose("conv-2", Action{Kind: "cancel_order"})
	time.Sleep(time.Millisecond)

	assert.Equal(t, 2, c.Sweep())
	_, ok := s.Pending("conv-1")
	assert.False(t, ok)
}
