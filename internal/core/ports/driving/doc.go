// Package driving provides interfaces for primary/inbound ports.
//
// These are the operations external actors (the CLI) invoke on the
// core. Implementations live in internal/core/services.
package driving
