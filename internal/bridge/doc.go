// Package bridge owns the host<->webview communication core.
//
// Ownership boundary:
// - the ready-signal handshake and its completion advertisement
// - the pre-handshake outbound queue and its FIFO flush
// - request/response correlation, timeouts, and peer timeout hints
// - handler registration and uniform response/acknowledge dispatch
// - retry/backoff delivery for outbound application messages
//
// The transport primitive is injected; see internal/transport.
package bridge
