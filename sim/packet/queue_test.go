package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_FIFO(t *testing.T) {
	// GIVEN three packets enqueued in order
	q := NewQueue()
	a, b, c := &Basic{Payload: "a"}, &Basic{Payload: "b"}, &Basic{Payload: "c"}
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	// THEN they leave in the same order
	assert.Equal(t, 3, q.Len())
	assert.Same(t, a, q.Peek())
	assert.Same(t, a, q.Dequeue())
	assert.Same(t, b, q.Dequeue())
	assert.Same(t, c, q.Dequeue())
	assert.True(t, q.IsEmpty())
	assert.Nil(t, q.Dequeue())
	assert.Nil(t, q.Peek())
}

func TestQueue_NewQueueIsFreshAndEmpty(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&Basic{})
	fresh := q.NewQueue()
	assert.True(t, fresh.IsEmpty())
	assert.NotSame(t, q, fresh)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_EnqueueNilPanics(t *testing.T) {
	assert.Panics(t, func() { NewQueue().Enqueue(nil) })
}

func TestQueue_String(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&Basic{Payload: "a"})
	q.Enqueue(&Basic{Payload: "b"})
	assert.Equal(t, "[pkt(a) pkt(b)]", q.String())
}
