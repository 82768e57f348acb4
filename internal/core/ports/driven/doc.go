// Package driven defines the outbound ports: interfaces the core
// services depend on, implemented by adapters (storage, connectors,
// credential providers, record processors).
package driven
