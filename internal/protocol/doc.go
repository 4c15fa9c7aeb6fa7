// Package protocol owns the host<->webview wire contract.
//
// Ownership boundary:
// - the Message envelope and its validation rules
// - reserved control message types and payload shapes
// - newline-delimited JSON encode/decode for stream transports
package protocol
