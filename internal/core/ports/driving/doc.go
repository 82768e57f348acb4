// Package driving defines the inbound ports: the service interfaces
// the transport adapters (HTTP, CLI, spool watcher, scheduler) call.
package driving
