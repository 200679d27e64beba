// Package jira syncs issues and their change histories from Jira Cloud
// via the Atlassian OAuth 2.0 (3LO) flow. API access goes through the
// api.atlassian.com gateway once the site's cloud ID is resolved.
package jira
