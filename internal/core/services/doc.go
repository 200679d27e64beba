// Package services contains the core business logic: sync orchestration,
// control mapping and coverage analysis. Services depend only on domain
// types and ports, never on adapters.
package services
