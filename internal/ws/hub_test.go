package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	userID   string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
	sendErr  error
}

func newMockClient(id, userID string) *mockClient {
	return &mockClient{id: id, userID: userID, messages: make([][]byte, 0)}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) UserID() string {
	return m.userID
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "u1")
	client2 := newMockClient("client-2", "u1")
	client3 := newMockClient("client-3", "u2")

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount("u1"))
	assert.Equal(t, 1, hub.ClientCount("u2"))
	assert.Equal(t, 0, hub.ClientCount("ghost"))

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount("u1"))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount("u1"))
	assert.Equal(t, 0, hub.ClientCount("u2"))
}

func TestHub_Broadcast_UserIsolation(t *testing.T) {
	hub := NewHub()

	client1a := newMockClient("client-1a", "u1")
	client1b := newMockClient("client-1b", "u1")
	client2 := newMockClient("client-2", "u2")

	hub.Register(client1a)
	hub.Register(client1b)
	hub.Register(client2)

	evt := NewEvent(EventTypeCreated, EntityTypeTransaction, map[string]interface{}{"id": "t1"})
	hub.Broadcast("u1", evt)

	assert.Len(t, client1a.GetMessages(), 1, "client1a should receive 1 message")
	assert.Len(t, client1b.GetMessages(), 1, "client1b should receive 1 message")
	assert.Len(t, client2.GetMessages(), 0, "other user's client should receive nothing")

	var decoded Event
	require.NoError(t, json.Unmarshal(client1a.GetMessages()[0], &decoded))
	assert.Equal(t, "transaction.created", decoded.Type)
}

func TestHub_Broadcast_NoClients(t *testing.T) {
	hub := NewHub()
	// Broadcasting into the void must not panic.
	hub.Broadcast("u1", NewEvent(EventTypeUpdated, EntityTypeCategory, nil))
}

func TestHub_Broadcast_DropsFailingClient(t *testing.T) {
	hub := NewHub()

	healthy := newMockClient("healthy", "u1")
	failing := newMockClient("failing", "u1")
	failing.sendErr = ErrClientClosed

	hub.Register(healthy)
	hub.Register(failing)

	hub.Broadcast("u1", NewEvent(EventTypeCreated, EntityTypeAssignment, nil))

	assert.Len(t, healthy.GetMessages(), 1)
	assert.Equal(t, 1, hub.ClientCount("u1"), "failing client should be unregistered")
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	client := newMockClient("client-1", "u1")
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish("u1", NewEvent(EventTypeDeleted, EntityTypeTransaction, nil))

	assert.Len(t, client.GetMessages(), 1)
}

func TestNoOpPublisher(t *testing.T) {
	var publisher EventPublisher = &NoOpPublisher{}
	publisher.Publish("u1", NewEvent(EventTypeCreated, EntityTypeUser, nil))
}
