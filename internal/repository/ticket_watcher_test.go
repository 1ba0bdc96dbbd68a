package repository

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestDrainEmptiesQueuedMessages(t *testing.T) {
	messages := make(chan interface{}, 4)
	messages <- &redis.Message{Payload: "a"}
	messages <- &redis.Subscription{Kind: "subscribe"}
	messages <- &redis.Message{Payload: "b"}

	drain(messages)
	assert.Empty(t, messages)

	messages <- &redis.Message{Payload: "c"}
	close(messages)
	drain(messages)
	_, ok := <-messages
	assert.False(t, ok)
}
