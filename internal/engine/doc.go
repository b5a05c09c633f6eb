// Package engine implements the realtime presence and broadcast engine.
//
// The Registry owns all live connections and the presence index. The Router
// maps roles to channel sets and handles per-alert subscriptions. The
// Dispatcher resolves recipient tags to channels and fans notifications out
// with bounded concurrency, isolating per-connection failures. The Heartbeat
// emits periodic liveness events; the SnapshotProvider pushes a one-time
// status event on admission.
package engine
