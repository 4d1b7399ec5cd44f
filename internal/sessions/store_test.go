package sessions

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/patient-booking/internal/workflow"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newController() *workflow.Controller {
	return workflow.New(workflow.Deps{Logger: logging.Nop()}, workflow.Options{})
}

func TestStoreCreateGetDelete(t *testing.T) {
	store := NewStore(time.Minute, logging.Nop())
	sess := store.Create("5", true, newController())

	require.NotEmpty(t, sess.ID)
	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, store.Delete(sess.ID))
	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(sess.ID), ErrNotFound)
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	store := NewStore(10*time.Minute, logging.Nop(), WithClock(clock.Now))

	a := store.Create("1", false, newController())
	b := store.Create("2", false, newController())

	clock.Advance(8 * time.Minute)
	_, err := store.Get(a.ID)
	require.NoError(t, err, "touching keeps a session alive")

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, store.Sweep(clock.Now()))
	_, err = store.Get(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	clock.Advance(11 * time.Minute)
	_, err = store.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound, "Get also enforces the TTL")
	assert.Equal(t, 0, store.Len())
}

func TestStoreDeleteClosesSubscriptions(t *testing.T) {
	store := NewStore(time.Minute, logging.Nop())
	ctrl := newController()
	sess := store.Create("1", false, ctrl)
	views, cancel := ctrl.Subscribe()
	defer cancel()
	<-views

	require.NoError(t, store.Delete(sess.ID))
	_, open := <-views
	assert.False(t, open)
}

func TestStoreListOrdered(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	store := NewStore(time.Hour, logging.Nop(), WithClock(clock.Now))

	first := store.Create("1", true, newController())
	clock.Advance(time.Second)
	second := store.Create("2", false, newController())

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.True(t, list[0].Guest)
	assert.Equal(t, workflow.SubmissionIdle, list[1].Submission)
}

func TestStoreJanitor(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	store := NewStore(time.Minute, logging.Nop(), WithClock(clock.Now))
	store.Create("1", false, newController())
	clock.Advance(2 * time.Minute)

	store.Start(5 * time.Millisecond)
	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	store.Close()
	store.Close()
}
