// Package domain contains the core business entities for the evidence
// engine: artifacts captured from source systems, their control mappings,
// sync jobs, and the coverage/gap report types derived from them.
//
// Types here have no dependencies on adapters or external services.
package domain
