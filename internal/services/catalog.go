package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/shared"
	"golang.org/x/time/rate"
)

// GenericFetchMessage is shown for any fetch failure that is neither an HTTP status nor a timeout.
const GenericFetchMessage = "Failed to load playlists"

const defaultTimeout = 10 * time.Second

var _ CatalogFetcher = (*CatalogService)(nil)

// FetchError describes a failed catalog request.
//
// StatusCode is set for non-2xx responses, Timeout for requests that hit the
// fetch deadline. Anything else is a transport or decode failure in Err.
type FetchError struct {
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: status %d", shared.ErrAPIRequest, e.StatusCode)
	case e.Timeout:
		return fmt.Sprintf("%v: %v", shared.ErrAPIRequest, shared.ErrTimeout)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", shared.ErrAPIRequest, e.Err)
	default:
		return shared.ErrAPIRequest.Error()
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches [shared.ErrAPIRequest] for every FetchError and [shared.ErrTimeout] for timeouts.
func (e *FetchError) Is(target error) bool {
	return target == shared.ErrAPIRequest || (e.Timeout && target == shared.ErrTimeout)
}

// Message is the user-facing text for the error banner.
func (e *FetchError) Message() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("API error %d", e.StatusCode)
	case e.Timeout:
		return GenericFetchMessage + ": request timed out"
	default:
		return GenericFetchMessage
	}
}

// BannerMessage converts a fetch error into the single banner line shown to the user.
//
// Cancellation is not an error from the user's point of view and reports false.
func BannerMessage(err error) (string, bool) {
	if err == nil || errors.Is(err, shared.ErrCancelled) {
		return "", false
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message(), true
	}
	return GenericFetchMessage, true
}

// CatalogOpts configures a [CatalogService].
type CatalogOpts struct {
	Timeout        time.Duration // Upper bound for one request; defaults to 10s
	ReloadInterval time.Duration // Minimum spacing of explicit reloads; zero disables throttling
	Logger         *log.Logger
}

// CatalogService fetches the playlist catalog from the API.
type CatalogService struct {
	api     *APIService
	timeout time.Duration
	reloads *rate.Limiter
	logger  *log.Logger
}

// NewCatalogService creates a CatalogService on top of api.
func NewCatalogService(api *APIService, opts CatalogOpts) *CatalogService {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.ReloadInterval > 0 {
		limit = rate.Every(opts.ReloadInterval)
	}

	return &CatalogService{
		api:     api,
		timeout: opts.Timeout,
		reloads: rate.NewLimiter(limit, 1),
		logger:  shared.WithLogger(opts.Logger, "service", "catalog"),
	}
}

// FetchCatalog requests the catalog once, bounded by the configured timeout.
func (s *CatalogService) FetchCatalog(ctx context.Context) (*models.Catalog, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	resp, err := s.api.Get(reqCtx, CatalogPath)
	if err != nil {
		return nil, s.classify(ctx, err)
	}

	if !resp.OK() {
		s.logger.Warn("catalog request rejected", "status", resp.StatusCode)
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	var catalog models.Catalog
	if err := json.Unmarshal(resp.Body, &catalog); err != nil {
		s.logger.Error("failed to decode catalog", "err", err)
		return nil, &FetchError{Err: fmt.Errorf("failed to decode catalog: %w", err)}
	}

	if err := catalog.Validate(); err != nil {
		s.logger.Error("catalog failed validation", "err", err)
		return nil, &FetchError{Err: err}
	}

	s.logger.Info("fetched catalog",
		"playlists", len(catalog.Playlists),
		"tracks", catalog.TrackCount(),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	return &catalog, nil
}

// AllowReload reports whether the previous reload is far enough in the past.
func (s *CatalogService) AllowReload() bool {
	return s.reloads.Allow()
}

// ResolveURL joins a catalog path against the API base URL.
func (s *CatalogService) ResolveURL(path string) string {
	return shared.JoinURL(s.api.BaseURL(), path)
}

// classify maps a transport error onto cancellation, timeout or a generic failure.
func (s *CatalogService) classify(parent context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		s.logger.Debug("catalog request cancelled")
		return fmt.Errorf("%w: %v", shared.ErrCancelled, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("catalog request timed out", "timeout", s.timeout)
		return &FetchError{Timeout: true, Err: err}
	}

	s.logger.Error("catalog request failed", "err", err)
	return &FetchError{Err: err}
}
