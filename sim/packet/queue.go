package packet

import (
	"fmt"
	"strings"
)

// Queue is an unbounded FIFO buffer of packets local to one node.
// A Queue must never be shared between nodes.
type Queue struct {
	queue []Packet
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// NewQueue returns a fresh empty queue of the same kind as q. Replica nodes
// use it so they never share a buffer with their prototype.
func (q *Queue) NewQueue() *Queue {
	return NewQueue()
}

// Enqueue adds a packet to the back of the queue.
func (q *Queue) Enqueue(p Packet) {
	if p == nil {
		panic("Enqueue: packet must not be nil")
	}
	q.queue = append(q.queue, p)
}

// Dequeue removes and returns the packet at the front, or nil if empty.
func (q *Queue) Dequeue() Packet {
	if len(q.queue) == 0 {
		return nil
	}
	p := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return p
}

// Peek returns the packet at the front without removing it, or nil if empty.
func (q *Queue) Peek() Packet {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

// Len returns the number of buffered packets.
func (q *Queue) Len() int { return len(q.queue) }

// IsEmpty reports whether the queue holds no packets.
func (q *Queue) IsEmpty() bool { return len(q.queue) == 0 }

func (q *Queue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range q.queue {
		sb.WriteString(fmt.Sprint(val))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
