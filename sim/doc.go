// Package sim provides the discrete-event engine for macsim, a simulator of
// time-slotted medium-access networks.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: EventKind enumeration, the EventTriggered contract, and Event
//   - scheduler.go: the event heap (time, then insertion order) and the run loop
//   - errors.go: fatal protocol and temporal violations
//
// # Architecture
//
// The sim package owns time and dispatch only; simulation entities live in
// sub-packages:
//   - sim/packet/: packets, routes, FIFO queues
//   - sim/source/: packet sources and interarrival distributions
//   - sim/mac/: the node arena, broadcast channel, TDMA nodes, route relay
//   - sim/metrics/: result sink collecting delivered packets
//   - sim/trace/: dispatch trace recording via scheduler hooks
//
// There is no ambient clock. Every operation that needs the current time or
// schedules future work receives the *Scheduler explicitly.
package sim
