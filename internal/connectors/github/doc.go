// Package github implements the GitHub connector. It syncs pull requests
// and the reviews submitted on them as evidence artifacts.
//
// The connector uses the go-github client with dual-strategy rate
// limiting: a proactive token bucket keeps the request rate below the
// API quota, and response headers are tracked so the connector backs off
// before exhausting the remaining allowance.
package github
