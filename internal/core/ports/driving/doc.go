// Package driving defines the inbound ports of the evidence engine: the
// interfaces the CLI (or a scheduler) uses to trigger syncs, mapping and
// coverage reporting.
package driving
