package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/attest-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/attest-cli/internal/core/domain"
	"github.com/custodia-labs/attest-cli/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.attest/data/attest.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".attest", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "attest.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ArtifactStore returns an ArtifactStore interface backed by this store.
func (s *Store) ArtifactStore() driven.ArtifactStore {
	return &artifactStore{store: s}
}

// MappingStore returns a MappingStore interface backed by this store.
func (s *Store) MappingStore() driven.MappingStore {
	return &mappingStore{store: s}
}

// SyncJobStore returns a SyncJobStore interface backed by this store.
func (s *Store) SyncJobStore() driven.SyncJobStore {
	return &syncJobStore{store: s}
}

// IntegrationStore returns an IntegrationStore interface backed by this store.
func (s *Store) IntegrationStore() driven.IntegrationStore {
	return &integrationStore{store: s}
}

// AuditStore returns an AuditStore interface backed by this store.
func (s *Store) AuditStore() driven.AuditStore {
	return &auditStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Artifact Store ====================

// artifactStore implements driven.ArtifactStore.
type artifactStore struct {
	store *Store
}

var _ driven.ArtifactStore = (*artifactStore)(nil)

const artifactColumns = `id, org_id, sync_job_id, source_system, source_object_id, source_url,
	source_created_at, captured_at, content_hash, type, title, raw_content, normalized,
	period_start, period_end, approval_status, created_at, updated_at`

// Upsert inserts or updates an artifact by its source identity. When two
// processes insert the same identity at once the loser's insert is a silent
// no-op on the uniqueness constraint and the retried lookup converges to
// the update path.
func (s *artifactStore) Upsert(ctx context.Context, artifact *domain.EvidenceArtifact) (bool, error) {
	for {
		row := s.store.db.QueryRowContext(ctx, `
			SELECT id, content_hash, created_at FROM artifacts
			WHERE org_id = ? AND source_system = ? AND source_object_id = ?
		`, artifact.OrgID, artifact.SourceSystem, artifact.SourceObjectID)

		var existingID, existingHash string
		var existingCreatedAt time.Time
		err := row.Scan(&existingID, &existingHash, &existingCreatedAt)
		switch {
		case err == sql.ErrNoRows:
			inserted, err := insertArtifact(ctx, s.store.db, artifact)
			if err != nil {
				return false, err
			}
			if inserted {
				return true, nil
			}
			// Another process committed this identity between the lookup
			// and the insert. The next lookup sees its row.
			continue

		case err != nil:
			return false, fmt.Errorf("looking up artifact: %w", err)
		}

		artifact.ID = existingID
		artifact.CreatedAt = existingCreatedAt

		// Equal hashes mean the evidentiary facts are unchanged.
		if existingHash == artifact.ContentHash {
			return false, nil
		}

		if err := updateArtifactContent(ctx, s.store.db, artifact); err != nil {
			return false, err
		}
		return false, nil
	}
}

// insertArtifact attempts the insert and reports whether a row was written.
// A false result with a nil error means another writer already holds the
// source identity.
func insertArtifact(ctx context.Context, db *sql.DB, artifact *domain.EvidenceArtifact) (bool, error) {
	rawJSON, err := json.Marshal(artifact.RawContent)
	if err != nil {
		return false, fmt.Errorf("marshalling raw content: %w", err)
	}
	normalizedJSON, err := json.Marshal(artifact.Normalized)
	if err != nil {
		return false, fmt.Errorf("marshalling normalized content: %w", err)
	}

	now := time.Now().UTC()
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = now
	}
	artifact.UpdatedAt = now

	res, err := db.ExecContext(ctx, `
		INSERT INTO artifacts (`+artifactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(org_id, source_system, source_object_id) DO NOTHING
	`, artifact.ID, artifact.OrgID, artifact.SyncJobID, artifact.SourceSystem,
		artifact.SourceObjectID, artifact.SourceURL, nullTime(artifact.SourceCreatedAt),
		artifact.CapturedAt, artifact.ContentHash, string(artifact.Type), artifact.Title,
		string(rawJSON), string(normalizedJSON), nullTime(artifact.PeriodStart),
		nullTime(artifact.PeriodEnd), string(artifact.ApprovalStatus),
		artifact.CreatedAt, artifact.UpdatedAt)

	if err != nil {
		return false, fmt.Errorf("inserting artifact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting artifact: %w", err)
	}
	return affected > 0, nil
}

func updateArtifactContent(ctx context.Context, db *sql.DB, artifact *domain.EvidenceArtifact) error {
	rawJSON, err := json.Marshal(artifact.RawContent)
	if err != nil {
		return fmt.Errorf("marshalling raw content: %w", err)
	}
	normalizedJSON, err := json.Marshal(artifact.Normalized)
	if err != nil {
		return fmt.Errorf("marshalling normalized content: %w", err)
	}

	artifact.UpdatedAt = time.Now().UTC()

	// Identity, approval status and mappings are untouched on content change.
	_, err = db.ExecContext(ctx, `
		UPDATE artifacts SET
			raw_content = ?,
			normalized = ?,
			content_hash = ?,
			title = ?,
			source_url = ?,
			captured_at = ?,
			period_start = ?,
			period_end = ?,
			updated_at = ?
		WHERE id = ?
	`, string(rawJSON), string(normalizedJSON), artifact.ContentHash, artifact.Title,
		artifact.SourceURL, artifact.CapturedAt, nullTime(artifact.PeriodStart),
		nullTime(artifact.PeriodEnd), artifact.UpdatedAt, artifact.ID)

	if err != nil {
		return fmt.Errorf("updating artifact: %w", err)
	}
	return nil
}

// Get retrieves an artifact by ID, scoped to an organization.
func (s *artifactStore) Get(ctx context.Context, orgID, artifactID string) (*domain.EvidenceArtifact, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+artifactColumns+` FROM artifacts WHERE org_id = ? AND id = ?
	`, orgID, artifactID)

	return scanArtifact(row)
}

// GetBySource retrieves an artifact by its source identity.
func (s *artifactStore) GetBySource(ctx context.Context, orgID, sourceSystem, sourceObjectID string) (*domain.EvidenceArtifact, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+artifactColumns+` FROM artifacts
		WHERE org_id = ? AND source_system = ? AND source_object_id = ?
	`, orgID, sourceSystem, sourceObjectID)

	return scanArtifact(row)
}

// List returns artifacts for an organization, newest captured first.
func (s *artifactStore) List(ctx context.Context, orgID string, filter driven.ArtifactFilter) ([]domain.EvidenceArtifact, error) {
	query := "SELECT " + artifactColumns + " FROM artifacts WHERE org_id = ?"
	args := []any{orgID}

	if filter.SourceSystem != "" {
		query += " AND source_system = ?"
		args = append(args, filter.SourceSystem)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.ApprovalStatus != "" {
		query += " AND approval_status = ?"
		args = append(args, string(filter.ApprovalStatus))
	}

	query += " ORDER BY captured_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	return scanArtifacts(rows)
}

// ListByControl returns artifacts mapped to a control whose own period
// lies within the given range.
func (s *artifactStore) ListByControl(ctx context.Context, orgID, controlID string, rng domain.DateRange) ([]domain.EvidenceArtifact, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+qualifiedArtifactColumns()+`
		FROM artifacts a
		JOIN mappings m ON m.artifact_id = a.id
		WHERE a.org_id = ? AND m.control_id = ?
			AND a.period_start IS NOT NULL AND a.period_end IS NOT NULL
			AND a.period_start >= ? AND a.period_end <= ?
		ORDER BY a.captured_at DESC
	`, orgID, controlID, rng.Start, rng.End)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts by control: %w", err)
	}
	defer rows.Close()

	return scanArtifacts(rows)
}

// SetApprovalStatus records an operator review decision.
func (s *artifactStore) SetApprovalStatus(ctx context.Context, orgID, artifactID string, status domain.ApprovalStatus) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE artifacts SET approval_status = ?, updated_at = ?
		WHERE org_id = ? AND id = ?
	`, string(status), time.Now().UTC(), orgID, artifactID)
	if err != nil {
		return fmt.Errorf("updating approval status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// qualifiedArtifactColumns prefixes the artifact column list for joins.
func qualifiedArtifactColumns() string {
	cols := strings.Split(artifactColumns, ",")
	for i, col := range cols {
		cols[i] = "a." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

// rowScanner is the subset of sql.Row and sql.Rows the scan helpers need.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifactFrom(scanner rowScanner) (*domain.EvidenceArtifact, error) {
	var artifact domain.EvidenceArtifact
	var artifactType, approvalStatus, rawJSON, normalizedJSON string
	var sourceCreatedAt, periodStart, periodEnd sql.NullTime

	if err := scanner.Scan(&artifact.ID, &artifact.OrgID, &artifact.SyncJobID,
		&artifact.SourceSystem, &artifact.SourceObjectID, &artifact.SourceURL,
		&sourceCreatedAt, &artifact.CapturedAt, &artifact.ContentHash,
		&artifactType, &artifact.Title, &rawJSON, &normalizedJSON,
		&periodStart, &periodEnd, &approvalStatus,
		&artifact.CreatedAt, &artifact.UpdatedAt); err != nil {
		return nil, err
	}

	artifact.Type = domain.ArtifactType(artifactType)
	artifact.ApprovalStatus = domain.ApprovalStatus(approvalStatus)
	artifact.SourceCreatedAt = timePtr(sourceCreatedAt)
	artifact.PeriodStart = timePtr(periodStart)
	artifact.PeriodEnd = timePtr(periodEnd)

	if err := json.Unmarshal([]byte(rawJSON), &artifact.RawContent); err != nil {
		return nil, fmt.Errorf("unmarshalling raw content: %w", err)
	}
	if err := json.Unmarshal([]byte(normalizedJSON), &artifact.Normalized); err != nil {
		return nil, fmt.Errorf("unmarshalling normalized content: %w", err)
	}

	return &artifact, nil
}

func scanArtifact(row *sql.Row) (*domain.EvidenceArtifact, error) {
	artifact, err := scanArtifactFrom(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning artifact: %w", err)
	}
	return artifact, nil
}

func scanArtifacts(rows *sql.Rows) ([]domain.EvidenceArtifact, error) {
	var artifacts []domain.EvidenceArtifact //nolint:prealloc // size unknown from query
	for rows.Next() {
		artifact, err := scanArtifactFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		artifacts = append(artifacts, *artifact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating artifacts: %w", err)
	}

	return artifacts, nil
}

// ==================== Mapping Store ====================

// mappingStore implements driven.MappingStore.
type mappingStore struct {
	store *Store
}

var _ driven.MappingStore = (*mappingStore)(nil)

// Upsert stores a mapping, updating an existing (artifact_id, control_id)
// row in place.
func (s *mappingStore) Upsert(ctx context.Context, mapping *domain.ControlMapping) error {
	now := time.Now().UTC()
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO mappings (id, artifact_id, control_id, source, confidence, rationale, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(artifact_id, control_id) DO UPDATE SET
			source = excluded.source,
			confidence = excluded.confidence,
			rationale = excluded.rationale,
			updated_at = excluded.updated_at
	`, mapping.ID, mapping.ArtifactID, mapping.ControlID, string(mapping.Source),
		mapping.Confidence, mapping.Rationale, mapping.CreatedAt, mapping.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving mapping: %w", err)
	}
	return nil
}

// ListForArtifact returns all mappings for an artifact.
func (s *mappingStore) ListForArtifact(ctx context.Context, artifactID string) ([]domain.ControlMapping, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, artifact_id, control_id, source, confidence, rationale, created_at, updated_at
		FROM mappings WHERE artifact_id = ?
	`, artifactID)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	return scanMappings(rows)
}

// ListForControl returns all mappings to a control across an organization's
// artifacts.
func (s *mappingStore) ListForControl(ctx context.Context, orgID, controlID string) ([]domain.ControlMapping, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT m.id, m.artifact_id, m.control_id, m.source, m.confidence, m.rationale, m.created_at, m.updated_at
		FROM mappings m
		JOIN artifacts a ON a.id = m.artifact_id
		WHERE a.org_id = ? AND m.control_id = ?
	`, orgID, controlID)
	if err != nil {
		return nil, fmt.Errorf("querying mappings by control: %w", err)
	}
	defer rows.Close()

	return scanMappings(rows)
}

// Delete removes a mapping.
func (s *mappingStore) Delete(ctx context.Context, artifactID, controlID string) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM mappings WHERE artifact_id = ? AND control_id = ?
	`, artifactID, controlID)
	if err != nil {
		return fmt.Errorf("deleting mapping: %w", err)
	}
	return nil
}

func scanMappings(rows *sql.Rows) ([]domain.ControlMapping, error) {
	var mappings []domain.ControlMapping //nolint:prealloc // size unknown from query
	for rows.Next() {
		var mapping domain.ControlMapping
		var source string
		if err := rows.Scan(&mapping.ID, &mapping.ArtifactID, &mapping.ControlID,
			&source, &mapping.Confidence, &mapping.Rationale,
			&mapping.CreatedAt, &mapping.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}
		mapping.Source = domain.MappingSource(source)
		mappings = append(mappings, mapping)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mappings: %w", err)
	}

	return mappings, nil
}

// ==================== Sync Job Store ====================

// syncJobStore implements driven.SyncJobStore.
type syncJobStore struct {
	store *Store
}

var _ driven.SyncJobStore = (*syncJobStore)(nil)

// Save stores or updates a job.
func (s *syncJobStore) Save(ctx context.Context, job *domain.SyncJob) error {
	detailsJSON, err := json.Marshal(job.ErrorDetails)
	if err != nil {
		return fmt.Errorf("marshalling error details: %w", err)
	}

	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sync_jobs (id, integration_id, status, started_at, completed_at,
			artifacts_found, artifacts_created, error_details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			artifacts_found = excluded.artifacts_found,
			artifacts_created = excluded.artifacts_created,
			error_details = excluded.error_details
	`, job.ID, job.IntegrationID, string(job.Status), nullTime(job.StartedAt),
		nullTime(job.CompletedAt), job.ArtifactsFound, job.ArtifactsCreated,
		string(detailsJSON), job.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving sync job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *syncJobStore) Get(ctx context.Context, jobID string) (*domain.SyncJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, integration_id, status, started_at, completed_at,
			artifacts_found, artifacts_created, error_details, created_at
		FROM sync_jobs WHERE id = ?
	`, jobID)

	job, err := scanSyncJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sync job: %w", err)
	}
	return job, nil
}

// ListForIntegration returns jobs for an integration, newest first.
func (s *syncJobStore) ListForIntegration(ctx context.Context, integrationID string, limit int) ([]domain.SyncJob, error) {
	query := `
		SELECT id, integration_id, status, started_at, completed_at,
			artifacts_found, artifacts_created, error_details, created_at
		FROM sync_jobs WHERE integration_id = ?
		ORDER BY created_at DESC
	`
	args := []any{integrationID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sync jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.SyncJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanSyncJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sync job: %w", err)
		}
		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync jobs: %w", err)
	}

	return jobs, nil
}

func scanSyncJob(scanner rowScanner) (*domain.SyncJob, error) {
	var job domain.SyncJob
	var status string
	var startedAt, completedAt sql.NullTime
	var detailsJSON sql.NullString

	if err := scanner.Scan(&job.ID, &job.IntegrationID, &status, &startedAt, &completedAt,
		&job.ArtifactsFound, &job.ArtifactsCreated, &detailsJSON, &job.CreatedAt); err != nil {
		return nil, err
	}

	job.Status = domain.SyncJobStatus(status)
	job.StartedAt = timePtr(startedAt)
	job.CompletedAt = timePtr(completedAt)

	if detailsJSON.Valid && detailsJSON.String != jsonNull {
		var details domain.SyncError
		if err := json.Unmarshal([]byte(detailsJSON.String), &details); err != nil {
			return nil, fmt.Errorf("unmarshalling error details: %w", err)
		}
		job.ErrorDetails = &details
	}

	return &job, nil
}

// ==================== Integration Store ====================

// integrationStore implements driven.IntegrationStore.
type integrationStore struct {
	store *Store
}

var _ driven.IntegrationStore = (*integrationStore)(nil)

// Save stores or updates an integration.
func (s *integrationStore) Save(ctx context.Context, integration *domain.Integration) error {
	if integration.ID == "" {
		return domain.ErrInvalidInput
	}

	resourcesJSON, err := json.Marshal(integration.ResourceIDs)
	if err != nil {
		return fmt.Errorf("marshalling resource ids: %w", err)
	}
	credentialsJSON, err := json.Marshal(integration.Credentials)
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	now := time.Now().UTC()
	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = now
	}
	integration.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO integrations (id, org_id, connector_type, status, resource_ids,
			credentials, last_sync_at, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			org_id = excluded.org_id,
			connector_type = excluded.connector_type,
			status = excluded.status,
			resource_ids = excluded.resource_ids,
			credentials = excluded.credentials,
			last_sync_at = excluded.last_sync_at,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`, integration.ID, integration.OrgID, string(integration.ConnectorType),
		string(integration.Status), string(resourcesJSON), string(credentialsJSON),
		nullTime(integration.LastSyncAt), integration.LastError,
		integration.CreatedAt, integration.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving integration: %w", err)
	}
	return nil
}

// Get retrieves an integration by ID.
func (s *integrationStore) Get(ctx context.Context, integrationID string) (*domain.Integration, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, org_id, connector_type, status, resource_ids, credentials,
			last_sync_at, last_error, created_at, updated_at
		FROM integrations WHERE id = ?
	`, integrationID)

	integration, err := scanIntegration(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning integration: %w", err)
	}
	return integration, nil
}

// List returns all integrations for an organization.
func (s *integrationStore) List(ctx context.Context, orgID string) ([]domain.Integration, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, org_id, connector_type, status, resource_ids, credentials,
			last_sync_at, last_error, created_at, updated_at
		FROM integrations WHERE org_id = ?
		ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("querying integrations: %w", err)
	}
	defer rows.Close()

	var integrations []domain.Integration //nolint:prealloc // size unknown from query
	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning integration: %w", err)
		}
		integrations = append(integrations, *integration)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating integrations: %w", err)
	}

	return integrations, nil
}

func scanIntegration(scanner rowScanner) (*domain.Integration, error) {
	var integration domain.Integration
	var connectorType, status, resourcesJSON string
	var credentialsJSON sql.NullString
	var lastSyncAt sql.NullTime

	if err := scanner.Scan(&integration.ID, &integration.OrgID, &connectorType, &status,
		&resourcesJSON, &credentialsJSON, &lastSyncAt, &integration.LastError,
		&integration.CreatedAt, &integration.UpdatedAt); err != nil {
		return nil, err
	}

	integration.ConnectorType = domain.ConnectorType(connectorType)
	integration.Status = domain.IntegrationStatus(status)
	integration.LastSyncAt = timePtr(lastSyncAt)

	if err := json.Unmarshal([]byte(resourcesJSON), &integration.ResourceIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling resource ids: %w", err)
	}

	if credentialsJSON.Valid && credentialsJSON.String != jsonNull {
		var creds domain.OAuthCredentials
		if err := json.Unmarshal([]byte(credentialsJSON.String), &creds); err != nil {
			return nil, fmt.Errorf("unmarshalling credentials: %w", err)
		}
		integration.Credentials = &creds
	}

	return &integration, nil
}

// ==================== Audit Store ====================

// auditStore implements driven.AuditStore.
type auditStore struct {
	store *Store
}

var _ driven.AuditStore = (*auditStore)(nil)

// Append writes an entry. Entries are never updated or deleted.
func (s *auditStore) Append(ctx context.Context, entry *domain.AuditEntry) error {
	detailJSON, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("marshalling detail: %w", err)
	}

	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, org_id, event_type, entity_type, entity_id, description, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.OrgID, string(entry.EventType), entry.EntityType,
		entry.EntityID, entry.Description, string(detailJSON), entry.OccurredAt)

	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// List returns entries for an organization, newest first.
func (s *auditStore) List(ctx context.Context, orgID string, limit int) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, org_id, event_type, entity_type, entity_id, description, detail, occurred_at
		FROM audit_log WHERE org_id = ?
		ORDER BY occurred_at DESC, rowid DESC
	`
	args := []any{orgID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.AuditEntry
		var eventType string
		var detailJSON sql.NullString
		if err := rows.Scan(&entry.ID, &entry.OrgID, &eventType, &entry.EntityType,
			&entry.EntityID, &entry.Description, &detailJSON, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entry.EventType = domain.AuditEventType(eventType)

		if detailJSON.Valid && detailJSON.String != jsonNull {
			if err := json.Unmarshal([]byte(detailJSON.String), &entry.Detail); err != nil {
				return nil, fmt.Errorf("unmarshalling detail: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit log: %w", err)
	}

	return entries, nil
}

// ==================== Helper Functions ====================

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
