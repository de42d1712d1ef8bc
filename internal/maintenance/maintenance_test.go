package maintenance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
	"github.com/Malikxolo/Customer-Support-agent/internal/confirm"
	"github.com/Malikxolo/Customer-Support-agent/internal/history"
)

func TestSweepDropsExpiredEntries(t *testing.T) {
	store := cache.New()
	store.Set("a", 1, time.Nanosecond)
	confirms := confirm.NewStore(store, time.Nanosecond)
	confirms.Propose("conv-1", confirm.Action{Kind: "create_ticket"})
	time.Sleep(time.Millisecond)

	s := New(store, nil, 0, zerolog.Nop())
	s.sweep()

	assert.Equal(t, 0, store.Len())
	_, ok := confirms.Pending("conv-1")
	assert.False(t, ok)
}

func TestStartStop(t *testing.T) {
	hs, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer hs.Close()

	s := New(cache.New(), hs, 30, zerolog.Nop())
	require.NoError(t, s.Start())
	s.Stop()
}
