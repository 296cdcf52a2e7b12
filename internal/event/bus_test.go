package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-service/internal/model"
)

func TestInMemoryBus_FanOut(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	a, unsubA := bus.Subscribe()
	b, unsubB := bus.Subscribe()
	defer unsubB()

	bus.Publish(New(TypeUserLoggedIn, 7, model.RoleCustomer, map[string]any{"session_id": int64(3)}))

	gotA := <-a
	gotB := <-b
	assert.Equal(t, gotA.ID, gotB.ID)
	assert.Equal(t, TypeUserLoggedIn, gotA.Type)
	assert.Equal(t, "7", gotA.ActorID)
	assert.Equal(t, "customer", gotA.ActorRole)

	unsubA()
	unsubA()
	_, open := <-a
	assert.False(t, open)

	bus.Publish(New(TypeUserLoggedOut, 7, model.RoleCustomer, nil))
	require.Len(t, b, 1)
}

func TestInMemoryBus_DropsWhenFull(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, unsub := bus.Subscribe()
	defer unsub()

	for range subscriberBuffer + 5 {
		bus.Publish(New(TypeUserRegistered, 0, "", nil))
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestNew_OmitsAnonymousActor(t *testing.T) {
	t.Parallel()

	e := New(TypeTenantCreated, 0, "", nil)
	assert.Empty(t, e.ActorID)
	assert.NotEmpty(t, e.ID)
	assert.NotEmpty(t, e.Timestamp)
}
