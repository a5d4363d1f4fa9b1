package publish

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itohio/dhtfw/pkg/config"
	"github.com/itohio/dhtfw/pkg/logger"
	"github.com/itohio/dhtfw/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []message
	err      error
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message{topic: topic, payload: payload})
	return f.err
}

func (f *fakePublisher) Close() {}

func TestTopic(t *testing.T) {
	assert.Equal(t, "dhtfw/4", Topic("dhtfw", 4))
	assert.Equal(t, "home/attic/12", Topic("home/attic/", 12))
}

func TestForward(t *testing.T) {
	in := make(chan sample.Sample, 2)
	ts := time.Unix(1700000000, 0).UTC()
	in <- sample.Sample{Timestamp: ts, Pin: 4, Temperature: 21.5, Humidity: 40, DewPoint: 7.5, Count: 1}
	in <- sample.Sample{Timestamp: ts, Pin: 5, Err: "Unknown sensor"}
	close(in)

	pub := &fakePublisher{}
	require.NoError(t, Forward(context.Background(), in, pub, "dhtfw", nil))

	require.Len(t, pub.messages, 2)
	assert.Equal(t, "dhtfw/4", pub.messages[0].topic)
	assert.Equal(t, "dhtfw/5", pub.messages[1].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.messages[0].payload, &got))
	assert.Equal(t, 21.5, got["t"])
	assert.Equal(t, float64(4), got["pin"])
	assert.NotContains(t, got, "e")

	require.NoError(t, json.Unmarshal(pub.messages[1].payload, &got))
	assert.Equal(t, "Unknown sensor", got["e"])
}

func TestForward_PublishErrorsAreNotFatal(t *testing.T) {
	in := make(chan sample.Sample, 2)
	in <- sample.Sample{Pin: 4}
	in <- sample.Sample{Pin: 5}
	close(in)

	pub := &fakePublisher{err: errors.New("not connected")}
	require.NoError(t, Forward(context.Background(), in, pub, "dhtfw", logger.Discard()))
	assert.Len(t, pub.messages, 2)
}

func TestForward_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Forward(ctx, make(chan sample.Sample), &fakePublisher{}, "dhtfw", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "dhtfw-test",
		Username: "user",
		Password: "secret",
	}

	opts := clientOptions(cfg, logger.Discard())

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "localhost:1883", opts.Servers[0].Host)
	assert.Equal(t, "dhtfw-test", opts.ClientID)
	assert.Equal(t, "user", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.True(t, opts.AutoReconnect)
}

func TestNewMQTT_NoBroker(t *testing.T) {
	m, err := NewMQTT(config.MQTTConfig{}, nil)
	assert.Error(t, err)
	assert.Nil(t, m)
}
