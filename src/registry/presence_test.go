package registry

import (
	"testing"
	"time"

	"signaling-service/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	p := New()

	require.NoError(t, p.Register("alice", "Alice"))

	u, err := p.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserID)
	assert.Equal(t, "Alice", u.DisplayName)
	assert.True(t, u.Online)
}

func TestRegisterEmptyUserID(t *testing.T) {
	p := New()
	err := p.Register("", "Nobody")
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestRegisterOverwrites(t *testing.T) {
	p := New()

	require.NoError(t, p.Register("alice", "Alice"))
	require.NoError(t, p.Register("alice", "Alice B."))

	u, err := p.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", u.DisplayName)
	assert.Len(t, p.ListOnline(), 1)
}

func TestGetUnknown(t *testing.T) {
	p := New()
	_, err := p.Get("ghost")
	require.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestListOnline(t *testing.T) {
	p := New()

	require.NoError(t, p.Register("alice", "Alice"))
	require.NoError(t, p.Register("bob", "Bob"))

	online := p.ListOnline()
	names := make(map[string]bool)
	for _, u := range online {
		names[u.UserID] = true
	}
	assert.Len(t, names, 2)
	assert.True(t, names["alice"])
	assert.True(t, names["bob"])
}

func TestMarkStale(t *testing.T) {
	p := New()

	require.NoError(t, p.Register("alice", "Alice"))
	require.NoError(t, p.Register("bob", "Bob"))

	// A cutoff in the future makes everyone stale.
	marked := p.MarkStale(time.Now().Add(time.Second))
	assert.Equal(t, 2, marked)
	assert.Empty(t, p.ListOnline())

	// Users stay known, just offline.
	u, err := p.Get("alice")
	require.NoError(t, err)
	assert.False(t, u.Online)

	// Touch revives a user the sweeper marked offline.
	p.Touch("alice")
	online := p.ListOnline()
	require.Len(t, online, 1)
	assert.Equal(t, "alice", online[0].UserID)
}

func TestTouchUnknownIsIgnored(t *testing.T) {
	p := New()
	p.Touch("ghost")
	_, err := p.Get("ghost")
	require.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestEvict(t *testing.T) {
	p := New()

	require.NoError(t, p.Register("alice", "Alice"))

	evicted := p.Evict(time.Now().Add(time.Second))
	assert.Equal(t, 1, evicted)
	_, err := p.Get("alice")
	require.ErrorIs(t, err, models.ErrUserNotFound)

	// Nothing left to evict.
	assert.Equal(t, 0, p.Evict(time.Now()))
}
