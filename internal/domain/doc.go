// Package domain defines the core types shared across the realtime engine.
//
// This package contains concept-oriented files (identity.go, alert.go, events.go, errors.go)
// with shared types and cross-cutting interfaces. No implementation code - just contracts.
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
