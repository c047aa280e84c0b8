package packet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyRoute is returned when a route has no hops.
var ErrEmptyRoute = errors.New("route must have at least one hop")

// Route is the ordered sequence of nodes a packet traverses from its origin
// (first hop) to its destination (last hop). Routes are immutable.
type Route struct {
	hops []NodeID
}

// NewRoute validates hops and builds a route. A node may appear only once,
// so NextHop is well defined.
func NewRoute(hops ...NodeID) (Route, error) {
	if len(hops) == 0 {
		return Route{}, ErrEmptyRoute
	}
	seen := make(map[NodeID]bool, len(hops))
	for _, h := range hops {
		if seen[h] {
			return Route{}, fmt.Errorf("route %v visits node %d twice", hops, h)
		}
		seen[h] = true
	}
	return Route{hops: append([]NodeID(nil), hops...)}, nil
}

// MustRoute is NewRoute that panics on invalid input. Intended for tests and
// static setups.
func MustRoute(hops ...NodeID) Route {
	r, err := NewRoute(hops...)
	if err != nil {
		panic(err)
	}
	return r
}

// NextHop returns the node following current. ok is false when current is
// the destination or not on the route.
func (r Route) NextHop(current NodeID) (next NodeID, ok bool) {
	for i, h := range r.hops {
		if h == current {
			if i+1 < len(r.hops) {
				return r.hops[i+1], true
			}
			return 0, false
		}
	}
	return 0, false
}

// Destination returns the terminal node.
func (r Route) Destination() NodeID { return r.hops[len(r.hops)-1] }

// Origin returns the first node.
func (r Route) Origin() NodeID { return r.hops[0] }

// Len returns the number of nodes on the route.
func (r Route) Len() int { return len(r.hops) }

// Hops returns a copy of the node sequence.
func (r Route) Hops() []NodeID { return append([]NodeID(nil), r.hops...) }

func (r Route) String() string {
	parts := make([]string, len(r.hops))
	for i, h := range r.hops {
		parts[i] = fmt.Sprint(int(h))
	}
	return "[" + strings.Join(parts, "->") + "]"
}
