package googledrive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// fileFields are the file attributes the iterator requests.
const fileFields = "nextPageToken, files(id, name, mimeType, webViewLink, createdTime, modifiedTime, owners, lastModifyingUser, size)"

var _ driven.ArtifactIterator = (*artifactIterator)(nil)

// artifactIterator pages through a folder's files, classifying each by
// name and MIME type. Files whose inferred type the caller did not ask
// for are skipped.
type artifactIterator struct {
	conn      *Connector
	svc       *drive.Service
	folderID  string
	dateRange domain.DateRange
	wanted    map[domain.ArtifactType]bool

	pageToken string
	queue     []*domain.RawArtifact
	done      bool
	closed    bool
}

func (it *artifactIterator) Next(ctx context.Context) (*domain.RawArtifact, error) {
	for {
		if it.closed {
			return nil, domain.ErrEndOfStream
		}
		if len(it.queue) > 0 {
			artifact := it.queue[0]
			it.queue = it.queue[1:]
			return artifact, nil
		}
		if it.done {
			return nil, domain.ErrEndOfStream
		}
		if err := it.fetchPage(ctx); err != nil {
			return nil, err
		}
	}
}

func (it *artifactIterator) Close() error {
	it.closed = true
	it.queue = nil
	return nil
}

func (it *artifactIterator) fetchPage(ctx context.Context) error {
	if err := it.conn.limiter.Wait(ctx); err != nil {
		return err
	}

	call := it.svc.Files.List().
		Q(it.query()).
		Fields(fileFields).
		OrderBy("modifiedTime desc").
		PageSize(100).
		Context(ctx)
	if it.pageToken != "" {
		call = call.PageToken(it.pageToken)
	}
	page, err := call.Do()
	if err != nil {
		return wrapError(err, fmt.Sprintf("list files in folder %s", it.folderID))
	}

	for _, file := range page.Files {
		if file.MimeType == folderMimeType {
			continue
		}
		artifactType := inferArtifactType(file)
		if len(it.wanted) > 0 && !it.wanted[artifactType] {
			continue
		}

		payload, err := toPayload(file)
		if err != nil {
			return fmt.Errorf("%w: file %s: %v", domain.ErrValidation, file.Id, err)
		}
		it.queue = append(it.queue, fileArtifact(file, artifactType, payload))
	}

	if page.NextPageToken == "" {
		it.done = true
		return nil
	}
	it.pageToken = page.NextPageToken
	return nil
}

// query builds the Drive search expression for the folder and date range.
func (it *artifactIterator) query() string {
	parts := []string{
		fmt.Sprintf("'%s' in parents", it.folderID),
		"trashed = false",
	}
	if !it.dateRange.Start.IsZero() {
		parts = append(parts, fmt.Sprintf("modifiedTime >= '%s'", it.dateRange.Start.UTC().Format(time.RFC3339)))
	}
	if !it.dateRange.End.IsZero() {
		parts = append(parts, fmt.Sprintf("modifiedTime <= '%s'", it.dateRange.End.UTC().Format(time.RFC3339)))
	}
	return strings.Join(parts, " and ")
}

func fileArtifact(file *drive.File, artifactType domain.ArtifactType, payload map[string]any) *domain.RawArtifact {
	artifact := &domain.RawArtifact{
		SourceSystem:   string(domain.ConnectorGoogleDrive),
		SourceObjectID: file.Id,
		SourceURL:      file.WebViewLink,
		Type:           artifactType,
		Title:          file.Name,
		RawContent:     payload,
		CapturedAt:     time.Now().UTC(),
	}
	if created, err := time.Parse(time.RFC3339, file.CreatedTime); err == nil {
		artifact.SourceCreatedAt = &created
	}
	if modified, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
		artifact.PeriodStart = &modified
		artifact.PeriodEnd = &modified
	}
	return artifact
}

// inferArtifactType classifies a file by its name and MIME type. Drive
// carries no evidence taxonomy, so naming conventions stand in for one.
func inferArtifactType(file *drive.File) domain.ArtifactType {
	name := strings.ToLower(file.Name)
	switch {
	case strings.Contains(name, "policy"), strings.Contains(name, "procedure"), strings.Contains(name, "standard"):
		return domain.ArtifactPolicy
	case strings.Contains(name, "meeting"), strings.Contains(name, "notes"):
		return domain.ArtifactMeetingNotes
	case file.MimeType == spreadsheetMimeType:
		return domain.ArtifactSpreadsheet
	default:
		return domain.ArtifactDocument
	}
}

// toPayload round-trips an API struct through JSON into the generic map
// form the rest of the pipeline works with.
func toPayload(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
