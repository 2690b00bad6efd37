// SPDX-License-Identifier: MIT

// Package classify determines whether a candidate stream URI is
// directly playable or a forced download, using a bounded, body-less
// transport probe.
package classify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MWieland/playctl/internal/log"
	"github.com/MWieland/playctl/internal/metrics"
)

// DefaultProbeTimeout bounds a single classification probe.
const DefaultProbeTimeout = 5 * time.Second

const maxRedirects = 3

// Result is the outcome of classifying one source.
// Invariant: Streamable == false implies Reason is set.
type Result struct {
	Streamable  bool
	ContentType string
	Reason      string
}

// Content-type signatures that mark a URI as a forced download.
var downloadSignatures = []string{
	"application/octet-stream",
	"binary/octet-stream",
	"application/force-download",
	"application/x-download",
	"application/download",
	"application/zip",
	"application/x-rar-compressed",
	"application/x-7z-compressed",
	"application/x-tar",
	"application/x-msdownload",
}

// Content-type prefixes that mark a URI as directly streamable.
var streamableSignatures = []string{
	"video/",
	"audio/",
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"application/dash+xml",
	"application/mp4",
}

// Classifier issues classification probes. The probe queries transport
// metadata only and never transfers the resource body.
type Classifier struct {
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithHTTPClient overrides the probe HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Classifier) { cl.client = c }
}

// WithTimeout overrides the probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Classifier) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// New creates a Classifier with a traced HTTP transport and the
// default probe timeout.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		timeout: DefaultProbeTimeout,
		log:     log.WithComponent("classify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify probes a single URI. It is single-shot and cancellable via
// ctx; exceeding the timeout or failing the probe degrades to an
// optimistic streamable result so the playback engine gets a chance to
// try. Headers are applied to the probe request.
func (c *Classifier) Classify(ctx context.Context, uri string, headers map[string]string) Result {
	// Opaque local references carry no content-type signal; skip the
	// probe entirely.
	if !isProbeable(uri) {
		return Result{Streamable: true}
	}

	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contentType, err := c.probe(probeCtx, uri, headers)
	metrics.ObserveProbeDuration(time.Since(start))

	if err != nil {
		// Probe failures are never surfaced; the engine fails
		// explicitly later if the source is genuinely unplayable.
		c.log.Debug().
			Str(log.FieldSourceURI, uri).
			Err(err).
			Msg("probe failed, assuming streamable")
		metrics.IncProbe("optimistic_error")
		return Result{Streamable: true}
	}

	res := classifyContentType(contentType)
	if res.Streamable {
		metrics.IncProbe("streamable")
	} else {
		metrics.IncProbe("download_only")
	}
	c.log.Debug().
		Str(log.FieldSourceURI, uri).
		Str(log.FieldContentType, contentType).
		Bool("streamable", res.Streamable).
		Msg("probe classified source")
	return res
}

// probe issues a HEAD request, falling back to a body-less ranged GET
// when the server rejects HEAD. The response body is never read.
func (c *Classifier) probe(ctx context.Context, uri string, headers map[string]string) (string, error) {
	resp, err := c.do(ctx, http.MethodHead, uri, headers)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp, err = c.do(ctx, http.MethodGet, uri, headers)
		if err != nil {
			return "", err
		}
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("probe status %d", resp.StatusCode)
	}
	return resp.Header.Get("Content-Type"), nil
}

func (c *Classifier) do(ctx context.Context, method, uri string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, uri, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if method == http.MethodGet {
		// Transport metadata only; zero-length range keeps the payload
		// off the wire.
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	// Metadata-only probe: discard nothing, close immediately.
	resp.Body.Close()
	return resp, nil
}

func classifyContentType(contentType string) Result {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}

	for _, sig := range downloadSignatures {
		if ct == sig {
			return Result{
				Streamable:  false,
				ContentType: ct,
				Reason:      fmt.Sprintf("server reports non-streamable content type %q", ct),
			}
		}
	}
	for _, sig := range streamableSignatures {
		if strings.HasPrefix(ct, sig) {
			return Result{Streamable: true, ContentType: ct}
		}
	}
	// Unknown signature: optimistic default.
	return Result{Streamable: true, ContentType: ct}
}

// isProbeable reports whether the URI addresses an HTTP resource the
// probe can query.
func isProbeable(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}
