// Package comm provides the communication scheduler talking to an NXT
// brick over a serial channel (USB or Bluetooth).
package comm

// The brick answers one request at a time, so Conn keeps at most one
// exchange on the wire. Callers are queued in a priority and a standard
// queue; after FairnessLimit consecutive priority exchanges a waiting
// standard exchange is served.
//
// All connection state is owned by the goroutine in Conn.Run. Public
// methods post operations to it and blocking serial reads and writes
// are executed by a separate I/O worker, whose results are handed back
// to Run as continuations.
//
// Over Bluetooth every telegram is prefixed by its length as a 2-byte
// little-endian integer. Replies are polled: the first poll waits for
// the adaptive minimum derived from past latencies of the same command.
