package sim

// Clock is a read-only view of simulated time. *Scheduler implements it.
type Clock interface {
	Now() float64
}
