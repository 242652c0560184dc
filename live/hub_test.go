package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubStop(t *testing.T) {
	hub := NewHub()

	runDone := make(chan struct{})
	go func() {
		hub.Run()
		close(runDone)
	}()

	client := &Client{
		Send: make(chan []byte, 1),
		Room: MatchRoom(42),
	}
	hub.Register <- client

	hub.Stop()
	// Повторный Stop не должен паниковать.
	hub.Stop()

	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("hub loop did not stop")
	}

	// Канал клиента закрыт, комната вычищена.
	_, ok := <-client.Send
	assert.False(t, ok)
	client.Mu.Lock()
	assert.True(t, client.IsClosed)
	client.Mu.Unlock()

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	require.Empty(t, hub.rooms)
}
