// Package driven defines the outbound ports of the evidence engine: the
// interfaces core services depend on for connectors, persistence and
// normalisation. Adapters under internal/adapters and internal/connectors
// implement them.
package driven
