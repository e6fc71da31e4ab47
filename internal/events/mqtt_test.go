package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements the Publish part of mqtt.Client
type MockClient struct {
	mqtt.Client
	mock.Mock
}

func (m *MockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(mqtt.Token)
}

func (m *MockClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

func TestMQTTPublisher_Publish(t *testing.T) {
	client := new(MockClient)
	pub := newMQTTPublisher(client, "fleet/test/", 1)

	event := Event{Type: Reserved, ReservationID: 7, AssetID: 2, CustomerID: 3, Status: "BOOKED", OccurredAt: time.Now()}

	var payload []byte
	client.On("Publish", "fleet/test/reserved", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(3).([]byte) }).
		Return(completedToken(nil))

	err := pub.Publish(context.Background(), event)
	require.NoError(t, err)
	client.AssertExpectations(t)

	var decoded Event
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, int64(7), decoded.ReservationID)
	assert.Equal(t, Reserved, decoded.Type)
}

func TestMQTTPublisher_PublishError(t *testing.T) {
	client := new(MockClient)
	pub := newMQTTPublisher(client, "", 0)
	assert.Equal(t, "fleet/reservations/cancelled", pub.Topic(Cancelled))

	client.On("Publish", "fleet/reservations/cancelled", byte(0), false, mock.Anything).
		Return(completedToken(errors.New("not connected")))

	err := pub.Publish(context.Background(), Event{Type: Cancelled})
	assert.EqualError(t, err, "not connected")
}

func TestMQTTPublisher_PublishContextCancelled(t *testing.T) {
	client := new(MockClient)
	pub := newMQTTPublisher(client, "fleet", 1)

	pending := &fakeToken{done: make(chan struct{})}
	client.On("Publish", "fleet/started", byte(1), false, mock.Anything).Return(pending)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Publish(ctx, Event{Type: Started})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMQTTPublisher_PublishTimeout(t *testing.T) {
	client := new(MockClient)
	pub := newMQTTPublisher(client, "fleet", 1)
	pub.Timeout = 50 * time.Millisecond

	// broker unreachable: the token never completes
	stuck := &fakeToken{done: make(chan struct{})}
	client.On("Publish", "fleet/returned", byte(1), false, mock.Anything).Return(stuck)

	done := make(chan error, 1)
	go func() { done <- pub.Publish(context.Background(), Event{Type: Returned}) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("Publish did not give up after its timeout")
	}
}

func TestMQTTPublisher_Close(t *testing.T) {
	client := new(MockClient)
	client.On("Disconnect", uint(250)).Return()

	newMQTTPublisher(client, "fleet", 0).Close()
	client.AssertExpectations(t)
}

func TestNewMQTTPublisher_RequiresBroker(t *testing.T) {
	_, err := NewMQTTPublisher(MQTTConfig{})
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), Event{Type: Returned}))
}
