// Package gateway orchestrates one incoming request: proxy it to the
// upstream, and if upstream signals an archive response, decode its
// manifest, build a layout, and hand off to the range HTTP adapter.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/3drobotics/zipstream/internal/archivestream"
	"github.com/3drobotics/zipstream/internal/config"
	"github.com/3drobotics/zipstream/internal/manifest"
	"github.com/3drobotics/zipstream/internal/objectstore"
	"github.com/3drobotics/zipstream/internal/rangehttp"
	"github.com/3drobotics/zipstream/internal/ziplayout"
)

// archiveHeader is the response header upstream sets to signal that its
// body is a JSON manifest to synthesize, rather than a body to proxy.
const archiveHeader = "X-Zip-Stream"

// viaHeader is the request header the gateway sets on every upstream
// request.
const viaHeader = "X-Via-Zip-Stream"

// forwardedRequestHeaders is the conservative allowlist of headers copied
// from the incoming request onto the upstream request. Request bodies are
// never forwarded: this gateway only ever issues GET-shaped archive/proxy
// traffic upstream, and buffering a body for a retry this gateway never
// performs would be wasted complexity.
var forwardedRequestHeaders = []string{"Accept", "Range", "If-Range", "If-None-Match"}

// Gateway holds the shared, process-wide handles used to serve every
// request: a single upstream HTTP client and a single object-store client,
// both safe for concurrent use.
type Gateway struct {
	Config *config.Config
	Client *http.Client
	Store  objectstore.Client
	Logger *slog.Logger
}

// New returns a Gateway. client and store are expected to be long-lived,
// process-wide singletons; logger defaults to slog.Default() if nil.
func New(cfg *config.Config, client *http.Client, store objectstore.Client, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{Config: cfg, Client: client, Store: store, Logger: logger}
}

// ServeHTTP implements http.Handler: every request not claimed by an
// administrative endpoint reaches here.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-Id")
	logger := g.Logger.With("request_id", requestID, "path", r.URL.Path)

	upstreamReq, err := g.buildUpstreamRequest(r)
	if err != nil {
		logger.Error("building upstream request", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	resp, err := g.Client.Do(upstreamReq)
	if err != nil {
		logger.Error("upstream request failed", "error", err)
		http.Error(w, "Upstream connection failed", http.StatusServiceUnavailable)
		return
	}
	defer resp.Body.Close()

	if resp.Header.Get(archiveHeader) == "" {
		g.proxyVerbatim(w, resp, logger)
		return
	}

	g.serveArchive(r, w, resp, logger)
}

// buildUpstreamRequest strips the configured prefix from the incoming
// path (400 if it is configured and absent), targets the configured
// upstream base, preserves the query string, and forwards the method and
// header allowlist.
func (g *Gateway) buildUpstreamRequest(r *http.Request) (*http.Request, error) {
	path := r.URL.Path
	if g.Config.StripPrefix != "" {
		if !strings.HasPrefix(path, g.Config.StripPrefix) {
			return nil, fmt.Errorf("gateway: path %q does not have configured prefix %q", path, g.Config.StripPrefix)
		}
		path = strings.TrimPrefix(path, g.Config.StripPrefix)
	}

	target := strings.TrimSuffix(g.Config.Upstream, "/") + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: building upstream request: %w", err)
	}
	for _, h := range forwardedRequestHeaders {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}
	req.Header.Set(viaHeader, g.Config.HeaderValue)
	return req, nil
}

// proxyVerbatim copies resp to w unchanged: status, headers, and body.
func (g *Gateway) proxyVerbatim(w http.ResponseWriter, resp *http.Response, logger *slog.Logger) {
	for k, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Info("client disconnected during proxied response", "error", err)
	}
}

// serveArchive buffers resp's body (capped at Config.MaxManifestBytes),
// decodes it as a manifest, builds a layout, and serves the request via
// the range HTTP adapter backed by the ZIP stream provider.
func (g *Gateway) serveArchive(r *http.Request, w http.ResponseWriter, resp *http.Response, logger *slog.Logger) {
	body, err := manifest.ReadBody(resp.Body, g.Config.MaxManifestBytes)
	if err != nil {
		logger.Error("reading upstream body", "error", err)
		http.Error(w, "Upstream request failed", http.StatusServiceUnavailable)
		return
	}

	m, err := manifest.Parse(body)
	if err != nil {
		logger.Error("decoding manifest", "error", err)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}

	layout, err := ziplayout.Build(m)
	if err != nil {
		logger.Error("building layout", "error", err, "archive", m.ArchiveName)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}

	provider := archivestream.New(layout, g.Store)
	entity := rangehttp.Entity{
		ArchiveName: layout.ArchiveName(),
		ContentType: "application/zip",
		ETag:        layout.ETag(),
		Source:      provider,
	}

	if err := rangehttp.ServeRange(r.Context(), w, r, entity); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("client disconnected mid-stream", "archive", m.ArchiveName)
			return
		}
		logger.Error("stream error mid-response", "error", err, "archive", m.ArchiveName)
	}
}
