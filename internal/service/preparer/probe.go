package preparer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mip-org/mip-core/internal/domain/wheel"
	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/manifest"
	"github.com/mip-org/mip-core/internal/recipe"
	"github.com/mip-org/mip-core/internal/version"
)

var (
	// errBadHTTPStatus is returned for any response other than 200 or 404.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errNotPublished is returned when the sidecar does not exist yet.
	errNotPublished = errors.New("package not found in bucket")
)

// upToDate reports whether the published sidecar of w matches def on every compared field.
// Any problem reaching or decoding the sidecar means the package is rebuilt.
func (p *preparer) upToDate(ctx context.Context, def *recipe.Definition, w wheel.Name) bool {
	remote, err := p.fetchSidecar(ctx, w.SidecarFile())
	if err != nil {
		if errors.Is(err, errNotPublished) {
			logger.Info(ctx, "Package not found in bucket")
		} else {
			logger.WarnKV(ctx, "Unable to check existing package", "error", err)
		}

		return false
	}

	local, err := manifest.ToDocument(def.Manifest(w.PlatformTag))
	if err != nil {
		logger.WarnKV(ctx, "Unable to encode local metadata", "error", err)

		return false
	}

	field, same := manifest.Compare(local, remote, manifest.CompareFields)
	if !same {
		logger.InfoKV(ctx, "Metadata mismatch",
			"field", field,
			"existing", string(remote[field]),
			"current", string(local[field]))

		return false
	}

	logger.Info(ctx, "Package exists with matching metadata")

	return true
}

// fetchSidecar downloads <base_url>/<sidecar> within the probe timeout.
func (p *preparer) fetchSidecar(ctx context.Context, sidecar string) (manifest.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	finalURL := p.cfg.PublicURL(sidecar)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())

	response, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	switch {
	case response.StatusCode == http.StatusNotFound:
		return nil, errNotPublished
	case response.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", finalURL, err)
	}

	doc, err := manifest.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", finalURL, err)
	}

	return doc, nil
}
