package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	s := New()
	s.Set("query_analysis:abc", "hello", time.Minute)

	v, ok := s.Get("query_analysis:abc")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestGetExpired(t *testing.T) {
	s := New()
	base := time.Now()
	s.now = func() time.Time { return base }

	s.Set("k", 1, time.Minute)
	s.now = func() time.Time { return base.Add(2 * time.Minute) }

	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestNonPositiveTTLStoresNothing(t *testing.T) {
	s := New()
	s.Set("k", 1, 0)
	s.Set("k2", 1, -time.Second)
	assert.Equal(t, 0, s.Len())
}

func TestSweep(t *testing.T) {
	s := New()
	base := time.Now()
	s.now = func() time.Time { return base }

	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Hour)
	s.now = func() time.Time { return base.Add(30 * time.Minute) }

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("b")
	assert.True(t, ok)
}

func TestScan(t *testing.T) {
	s := New()
	base := time.Now()
	s.now = func() time.Time { return base }

	s.Set("pending_confirm:t1", "conv-1", time.Minute)
	s.Set("pending_confirm:t2", "conv-2", time.Minute)
	s.Set("pending_confirm:t3", "conv-1", time.Nanosecond)
	s.Set("tool_data:x", "conv-1", time.Minute)
	s.now = func() time.Time { return base.Add(time.Second) }

	keys := s.Scan(func(key string, value any) bool {
		return value == "conv-1"
	})
	// The expired t3 entry is invisible to Scan.
	assert.ElementsMatch(t, []string{"pending_confirm:t1", "tool_data:x"}, keys)
}

func TestClear(t *testing.T) {
	s := New()
	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)
	assert.Equal(t, 2, s.Clear())
	assert.Equal(t, 0, s.Len())
}

func TestStats(t *testing.T) {
	s := New()
	s.Set(Key(NamespaceAnalysis, "q1"), "a", time.Minute)
	s.Set(Key(NamespaceToolData, "d1"), "b", time.Minute)
	s.Get(Key(NamespaceAnalysis, "q1"))
	s.Get("missing")

	st := s.Stats()
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, 1, st.ByNamespace[NamespaceAnalysis])
	assert.Equal(t, 1, st.ByNamespace[NamespaceToolData])
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestKeyNamespaced(t *testing.T) {
	k1 := Key(NamespaceAnalysis, "conv-1", "what is my order status")
	k2 := Key(NamespaceAnalysis, "conv-2", "what is my order status")
	assert.NotEqual(t, k1, k2)
	assert.Contains(t, k1, NamespaceAnalysis+":")

	// Same inputs, same key.
	assert.Equal(t, k1, Key(NamespaceAnalysis, "conv-1", "what is my order status"))
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a := Fingerprint([]string{"order_status:{\"order_id\":\"1\"}", "faq:{}"})
	b := Fingerprint([]string{"faq:{}", "order_status:{\"order_id\":\"1\"}"})
	assert.Equal(t, a, b)

	c := Fingerprint([]string{"faq:{}"})
	assert.NotEqual(t, a, c)
}

func TestFingerprintDoesNotMutateInput(t *testing.T) {
	in := []string{"b", "a"}
	Fingerprint(in)
	assert.Equal(t, []string{"b", "a"}, in)
}
