package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rpupo63/rooms-blog-backend/config"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	defaultAPIVersion = "v2024-01-01"
	serviceName       = "content store"
)

// SanityConfig locates a Sanity project and dataset.
type SanityConfig struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	// BaseURL overrides https://{ProjectID}.api.sanity.io
	BaseURL string
	Timeout time.Duration
}

// SanityConfigFromEnv reads SANITY_* settings from the config map.
func SanityConfigFromEnv(cfg map[string]string) SanityConfig {
	return SanityConfig{
		ProjectID:  config.GetString(cfg, "SANITY_PROJECT_ID", ""),
		Dataset:    config.GetString(cfg, "SANITY_DATASET", "production"),
		Token:      config.GetString(cfg, "SANITY_API_TOKEN", ""),
		APIVersion: config.GetString(cfg, "SANITY_API_VERSION", defaultAPIVersion),
		BaseURL:    config.GetString(cfg, "SANITY_BASE_URL", ""),
		Timeout:    time.Duration(config.GetInt(cfg, "SANITY_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}

// SanityStore implements Store against the Sanity HTTP API
type SanityStore struct {
	client  *http.Client
	baseURL string
	dataset string
	logger  zerolog.Logger
}

// sanity mutation request/response shapes
type mutateRequest struct {
	Mutations []map[string]any `json:"mutations"`
}

type sanityErrorResponse struct {
	Error struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
	Message string `json:"message"`
}

type docResponse struct {
	Documents []BlogDocument `json:"documents"`
}

func NewSanityStore(ctx context.Context, cfg SanityConfig) (*SanityStore, error) {
	if cfg.ProjectID == "" && cfg.BaseURL == "" {
		return nil, errs.NewEnvironmentVariableError("SANITY_PROJECT_ID")
	}
	if cfg.Token == "" {
		return nil, errs.NewEnvironmentVariableError("SANITY_API_TOKEN")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}

	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.sanity.io", cfg.ProjectID)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   "Bearer",
	}))
	client.Timeout = cfg.Timeout

	return &SanityStore{
		client:  client,
		baseURL: fmt.Sprintf("%s/%s", base, cfg.APIVersion),
		dataset: cfg.Dataset,
		logger:  log.With().Str("component", "sanityStore").Logger(),
	}, nil
}

func (s *SanityStore) Create(ctx context.Context, ref models.DocumentRef, doc BlogDocument) error {
	doc.ID = ref.ID()
	doc.Type = DocumentType
	if doc.Content == nil {
		doc.Content = models.Blocks{}
	}
	return s.mutate(ctx, "create document", map[string]any{"create": doc})
}

func (s *SanityStore) Patch(ctx context.Context, ref models.DocumentRef, patch DocumentPatch) error {
	if patch.Empty() {
		return nil
	}

	set := map[string]any{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = patch.Content
	}
	if patch.Excerpt != nil {
		set["excerpt"] = *patch.Excerpt
	}

	return s.mutate(ctx, "patch document", map[string]any{
		"patch": map[string]any{
			"id":  ref.ID(),
			"set": set,
		},
	})
}

func (s *SanityStore) Delete(ctx context.Context, ref models.DocumentRef) error {
	return s.mutate(ctx, "delete document", map[string]any{
		"delete": map[string]string{"id": ref.ID()},
	})
}

func (s *SanityStore) Get(ctx context.Context, ref models.DocumentRef) (*BlogDocument, error) {
	endpoint := fmt.Sprintf("%s/data/doc/%s/%s", s.baseURL, url.PathEscape(s.dataset), url.PathEscape(ref.ID()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.NewDependencyFailure(serviceName, "build get request", err)
	}
	req.Header.Set("Accept", "application/json")

	bodyBytes, status, err := s.do(req)
	if err != nil {
		return nil, errs.NewServiceUnreachableError(serviceName, err)
	}
	if status == http.StatusNotFound {
		return nil, errs.NewNotFound("content document")
	}
	if status != http.StatusOK {
		return nil, errs.NewDependencyFailure(serviceName, "get document", apiError(status, bodyBytes))
	}

	var resp docResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return nil, errs.NewJSONUnmarshalError("get document", err)
	}
	for i := range resp.Documents {
		if resp.Documents[i].ID == ref.ID() {
			return &resp.Documents[i], nil
		}
	}
	return nil, errs.NewNotFound("content document")
}

func (s *SanityStore) mutate(ctx context.Context, operation string, mutation map[string]any) error {
	payload, err := json.Marshal(mutateRequest{Mutations: []map[string]any{mutation}})
	if err != nil {
		return errs.NewDependencyFailure(serviceName, operation, err)
	}

	endpoint := fmt.Sprintf("%s/data/mutate/%s?returnIds=true&visibility=sync", s.baseURL, url.PathEscape(s.dataset))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errs.NewDependencyFailure(serviceName, operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	bodyBytes, status, err := s.do(req)
	if err != nil {
		return errs.NewServiceUnreachableError(serviceName, err)
	}
	if status != http.StatusOK {
		s.logger.Warn().Int("status", status).Str("operation", operation).Msg("content store rejected mutation")
		return errs.NewDependencyFailure(serviceName, operation, apiError(status, bodyBytes))
	}

	s.logger.Debug().Str("operation", operation).Msg("content store mutation applied")
	return nil
}

func (s *SanityStore) do(req *http.Request) ([]byte, int, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read content store response: %w", err)
	}
	return bodyBytes, resp.StatusCode, nil
}

func apiError(status int, body []byte) error {
	var errorResp sanityErrorResponse
	if err := json.Unmarshal(body, &errorResp); err == nil {
		if errorResp.Error.Description != "" {
			return fmt.Errorf("sanity API error (status %d): %s", status, errorResp.Error.Description)
		}
		if errorResp.Message != "" {
			return fmt.Errorf("sanity API error (status %d): %s", status, errorResp.Message)
		}
	}
	return fmt.Errorf("sanity API error (status %d): %s", status, string(body))
}
