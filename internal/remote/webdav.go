// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/clipvault/clipsync/internal/logger"
	"github.com/go-resty/resty/v2"
)

// WebDAVConfig carries everything needed to reach the remote store.
type WebDAVConfig struct {
	// Endpoint is the WebDAV server URL, e.g. "https://dav.example.com".
	Endpoint string

	// Username and Password are the basic-auth credentials.
	Username string
	Password string

	// BasePath is the directory on the server under which all clipsync
	// objects live, e.g. "/clipsync".
	BasePath string

	// Timeout bounds each individual HTTP call.
	Timeout time.Duration
}

type webdavClient struct {
	client   *resty.Client
	basePath string
	logger   *logger.Logger
}

// NewWebDAVClient constructs a Client speaking plain HTTP verbs (plus MKCOL)
// against a WebDAV endpoint. It normalises and validates the endpoint URL
// and configures basic auth and the per-call timeout.
//
// Returns an error if cfg.Endpoint is empty or cannot be parsed as a URL.
func NewWebDAVClient(cfg WebDAVConfig, log *logger.Logger) (Client, error) {
	baseURL, err := normalizeBaseURL(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid webdav endpoint: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout)
	if cfg.Username != "" {
		cli.SetBasicAuth(cfg.Username, cfg.Password)
	}

	return &webdavClient{
		client:   cli,
		basePath: "/" + strings.Trim(cfg.BasePath, "/"),
		logger:   log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// rooted resolves a store-relative path against the configured base path.
func (w *webdavClient) rooted(path string) string {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return w.basePath
	}
	if w.basePath == "/" {
		return "/" + path
	}
	return w.basePath + "/" + path
}

// Upload implements [Client]. It PUTs data at path as an opaque byte blob.
func (w *webdavClient) Upload(ctx context.Context, path string, data []byte) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data).
		Put(w.rooted(path))
	if err != nil {
		return fmt.Errorf("%w: upload %s: %v", ErrUnavailable, path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	w.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("uploaded remote object")
	return nil
}

// Download implements [Client]. It GETs the object at path and returns the
// raw body. A 404 surfaces as an error wrapping ErrNotFound.
func (w *webdavClient) Download(ctx context.Context, path string) ([]byte, error) {
	resp, err := w.client.R().
		SetContext(ctx).
		Get(w.rooted(path))
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %v", ErrUnavailable, path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return resp.Body(), nil
}

// Delete implements [Client].
func (w *webdavClient) Delete(ctx context.Context, path string) error {
	resp, err := w.client.R().
		SetContext(ctx).
		Delete(w.rooted(path))
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	w.logger.Debug().Str("path", path).Msg("deleted remote object")
	return nil
}

// CreateDirectory implements [Client] via MKCOL. A 405 from the server means
// the collection already exists and is treated as success.
func (w *webdavClient) CreateDirectory(ctx context.Context, path string) error {
	resp, err := w.client.R().
		SetContext(ctx).
		Execute("MKCOL", w.rooted(path))
	if err != nil {
		return fmt.Errorf("%w: mkcol %s: %v", ErrUnavailable, path, err)
	}
	if resp.StatusCode() == 405 {
		return nil
	}

	return mapHTTPError(resp)
}

// Exists implements [Client] with a HEAD request.
func (w *webdavClient) Exists(ctx context.Context, path string) (bool, error) {
	resp, err := w.client.R().
		SetContext(ctx).
		Head(w.rooted(path))
	if err != nil {
		return false, fmt.Errorf("%w: head %s: %v", ErrUnavailable, path, err)
	}
	if resp.StatusCode() == 404 {
		return false, nil
	}
	if err = mapHTTPError(resp); err != nil {
		return false, err
	}

	return true, nil
}

// TestConnection implements [Client]. It issues an OPTIONS request against
// the base path; any authenticated 2xx (or a 404 for a not-yet-created base
// directory) counts as reachable.
func (w *webdavClient) TestConnection(ctx context.Context) error {
	resp, err := w.client.R().
		SetContext(ctx).
		Execute("OPTIONS", w.basePath)
	if err != nil {
		return fmt.Errorf("%w: probe: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() == 404 {
		// Base directory not created yet; the server itself answered.
		return nil
	}

	return mapHTTPError(resp)
}
