// Package googledrive normalises raw Google Drive file metadata into
// canonical evidence content.
package googledrive

import (
	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/normalize/payload"
)

// NormalizeDocument maps a raw Drive file payload to the canonical
// document variant. The owner is the first entry in the owners list.
func NormalizeDocument(raw *domain.RawArtifact) domain.NormalizedContent {
	file := raw.RawContent

	var owner string
	if owners := payload.Strings(file, "displayName", "owners"); len(owners) > 0 {
		owner = owners[0]
	}

	return domain.NormalizedContent{
		Kind: domain.ContentDocument,
		Document: &domain.DocumentContent{
			Name:         payload.String(file, "name"),
			MIMEType:     payload.String(file, "mimeType"),
			Owner:        owner,
			LastModifier: payload.String(file, "lastModifyingUser", "displayName"),
			CreatedAt:    payload.Time(file, "createdTime"),
			ModifiedAt:   payload.Time(file, "modifiedTime"),
			WebLink:      payload.String(file, "webViewLink"),
		},
	}
}
