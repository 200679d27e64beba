package googledrive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/attest-cli/internal/core/domain"
)

func newTestConnector(t *testing.T, handler http.Handler) *Connector {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:9876/callback",
		AuthURL:      server.URL + "/auth",
		TokenURL:     server.URL + "/token",
		APIEndpoint:  server.URL,
	}
	return New(cfg, &domain.OAuthCredentials{AccessToken: "test-token", RefreshToken: "refresh-token"})
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestAuthURL(t *testing.T) {
	conn := New(Config{ClientID: "client-id", RedirectURI: "http://localhost/cb"}, nil)

	authURL := conn.AuthURL("random-state")

	assert.Contains(t, authURL, defaultAuthURL)
	assert.Contains(t, authURL, "client_id=client-id")
	assert.Contains(t, authURL, "access_type=offline")
	assert.Contains(t, authURL, "prompt=consent")
	assert.Contains(t, authURL, "state=random-state")
	assert.Contains(t, authURL, "drive.readonly")
}

func TestExchangeCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.FormValue("code"))
		writeJSON(t, w, map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	conn := newTestConnector(t, mux)

	creds, err := conn.ExchangeCode(context.Background(), "auth-code")

	require.NoError(t, err)
	assert.Equal(t, "new-access", creds.AccessToken)
	assert.Equal(t, "new-refresh", creds.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), creds.Expiry, time.Minute)
}

func TestRefreshTokenKeepsRefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		// Google omits refresh_token from refresh responses.
		writeJSON(t, w, map[string]any{
			"access_token": "rotated-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	conn := newTestConnector(t, mux)

	creds, err := conn.RefreshToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "rotated-access", creds.AccessToken)
	assert.Equal(t, "refresh-token", creds.RefreshToken)
}

func TestRefreshTokenWithoutRefreshToken(t *testing.T) {
	conn := New(Config{}, &domain.OAuthCredentials{AccessToken: "access"})

	_, err := conn.RefreshToken(context.Background())

	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestTestConnection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"user": map[string]any{
				"displayName":  "Jane Auditor",
				"emailAddress": "jane@acme.example",
			},
		})
	})
	conn := newTestConnector(t, mux)

	result, err := conn.TestConnection(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Connected())
	assert.Equal(t, "Connected as jane@acme.example", result.Message)
	assert.Equal(t, "Jane Auditor", result.Details["displayName"])
}

func TestTestConnectionBadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(t, w, map[string]any{
			"error": map[string]any{"code": 401, "message": "Invalid Credentials"},
		})
	})
	conn := newTestConnector(t, mux)

	result, err := conn.TestConnection(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionAuthError, result.Status)
}

func TestTestConnectionWithoutCredentials(t *testing.T) {
	conn := New(Config{}, nil)

	_, err := conn.TestConnection(context.Background())

	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestListResources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), folderMimeType)
		writeJSON(t, w, map[string]any{
			"files": []map[string]any{
				{"id": "folder-1", "name": "Compliance Evidence", "webViewLink": "https://drive.google.com/drive/folders/folder-1"},
				{"id": "folder-2", "name": "Engineering"},
			},
		})
	})
	conn := newTestConnector(t, mux)

	refs, err := conn.ListResources(context.Background(), domain.ResourceFilter{})

	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "folder-1", refs[0].ID)
	assert.Equal(t, "Compliance Evidence", refs[0].Name)
	assert.Equal(t, "folder", refs[0].Type)
}

func TestListResourcesSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"files": []map[string]any{
				{"id": "folder-1", "name": "Compliance Evidence"},
				{"id": "folder-2", "name": "Engineering"},
			},
		})
	})
	conn := newTestConnector(t, mux)

	refs, err := conn.ListResources(context.Background(), domain.ResourceFilter{Search: "compliance"})

	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "folder-1", refs[0].ID)
}

func TestFetchArtifactsStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		assert.Contains(t, q, "'folder-1' in parents")
		assert.Contains(t, q, "trashed = false")
		assert.Contains(t, q, "modifiedTime >=")

		writeJSON(t, w, map[string]any{
			"files": []map[string]any{
				{
					"id":           "file-policy",
					"name":         "Access Control Policy",
					"mimeType":     "application/vnd.google-apps.document",
					"webViewLink":  "https://docs.google.com/document/d/file-policy",
					"createdTime":  "2024-01-10T08:00:00Z",
					"modifiedTime": "2024-03-01T12:00:00Z",
				},
				{
					"id":           "file-notes",
					"name":         "Security Meeting Notes",
					"mimeType":     "application/vnd.google-apps.document",
					"modifiedTime": "2024-03-02T12:00:00Z",
				},
				{
					"id":       "subfolder",
					"name":     "Archive",
					"mimeType": folderMimeType,
				},
			},
		})
	})
	conn := newTestConnector(t, mux)

	dateRange := domain.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	iter, err := conn.FetchArtifacts(context.Background(), "folder-1", dateRange, nil)
	require.NoError(t, err)
	defer iter.Close()

	policy, err := iter.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "google_drive", policy.SourceSystem)
	assert.Equal(t, "file-policy", policy.SourceObjectID)
	assert.Equal(t, domain.ArtifactPolicy, policy.Type)
	assert.Equal(t, "Access Control Policy", policy.Title)
	require.NotNil(t, policy.SourceCreatedAt)
	assert.Equal(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), policy.SourceCreatedAt.UTC())
	require.NotNil(t, policy.PeriodStart)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), policy.PeriodStart.UTC())

	notes, err := iter.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ArtifactMeetingNotes, notes.Type)

	// The subfolder never surfaces.
	_, err = iter.Next(context.Background())
	assert.ErrorIs(t, err, domain.ErrEndOfStream)
}

func TestFetchArtifactsTypeFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"files": []map[string]any{
				{"id": "file-policy", "name": "Data Retention Policy"},
				{"id": "file-sheet", "name": "Vendor List", "mimeType": spreadsheetMimeType},
			},
		})
	})
	conn := newTestConnector(t, mux)

	iter, err := conn.FetchArtifacts(context.Background(), "folder-1", domain.DateRange{},
		[]domain.ArtifactType{domain.ArtifactPolicy})
	require.NoError(t, err)
	defer iter.Close()

	policy, err := iter.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "file-policy", policy.SourceObjectID)

	_, err = iter.Next(context.Background())
	assert.ErrorIs(t, err, domain.ErrEndOfStream)
}

func TestInferArtifactType(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		want     domain.ArtifactType
	}{
		{"policy", "Access Control Policy.pdf", "application/pdf", domain.ArtifactPolicy},
		{"procedure", "Incident Response Procedure", "application/vnd.google-apps.document", domain.ArtifactPolicy},
		{"standard", "Encryption Standard v2", "application/vnd.google-apps.document", domain.ArtifactPolicy},
		{"meeting", "Q1 Security Meeting", "application/vnd.google-apps.document", domain.ArtifactMeetingNotes},
		{"notes", "Review notes 2024-03", "application/vnd.google-apps.document", domain.ArtifactMeetingNotes},
		{"spreadsheet", "Vendor inventory", spreadsheetMimeType, domain.ArtifactSpreadsheet},
		{"fallback", "Architecture diagram", "application/pdf", domain.ArtifactDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inferArtifactType(&drive.File{Name: tt.fileName, MimeType: tt.mimeType})
			assert.Equal(t, tt.want, got)
		})
	}
}
