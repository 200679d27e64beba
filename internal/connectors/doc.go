// Package connectors provides source system connectors and the static
// factory that resolves them. The connector set is closed: github, jira
// and google_drive.
package connectors
