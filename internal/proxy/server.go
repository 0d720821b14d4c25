package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/admission"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/config"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/httpapi"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/logger"
	"github.com/thehillbeyondthisone/BackendBuddy/internal/traffic"
)

// forwardTimeout bounds the total time a forwarded request may take
// (spec.md §4.6 step 5).
const forwardTimeout = 30 * time.Second

// hopByHopResponseHeaders are regenerated by the host HTTP stack and must
// never be copied back from the target's response (spec.md §4.6 step 6).
var hopByHopResponseHeaders = []string{"Content-Encoding", "Content-Length", "Transfer-Encoding", "Connection"}

// Server is the admin port's HTTP entrypoint: it classifies every inbound
// request, gates it through the Admission Controller when queuing is
// enabled, and forwards to the configured target — or serves the admin API
// / admin WebSocket namespaces locally. Grounded on the teacher's
// server/server.go httpServer field and handler-method-on-struct layout in
// server/handlers.go; the forwarding core intentionally avoids
// net/http/httputil.ReverseProxy (spec.md forbids redirect-following and
// hop-by-hop passthrough that Director/ModifyResponse would obscure).
type Server struct {
	cfg       *config.Store
	admission *admission.Controller
	recorder  *traffic.Recorder

	apiHandler http.Handler
	wsHandler  http.Handler

	client  *http.Client
	limiter *perIPRateLimiter
}

// New constructs a reverse proxy Server. apiHandler and wsHandler serve the
// /api and /ws namespaces respectively; nil is accepted in tests that don't
// exercise those paths.
func New(cfg *config.Store, adm *admission.Controller, recorder *traffic.Recorder, apiHandler, wsHandler http.Handler) *Server {
	return &Server{
		cfg:        cfg,
		admission:  adm,
		recorder:   recorder,
		apiHandler: apiHandler,
		wsHandler:  wsHandler,
		client: &http.Client{
			Timeout: forwardTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: newPerIPRateLimiter(),
	}
}

// ServeHTTP is the single entrypoint for the admin port. A lightweight
// middleware wraps every request to capture the traffic observation
// (spec.md §4.6's trailing paragraph), excluding the traffic API/WS
// namespaces to avoid recursion (spec.md §4.2, §8 scenario F).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	client := ResolveClient(r)
	rw := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}

	s.route(rw, r, client)

	if s.recorder != nil && !traffic.IsExcludedPath(r.URL.Path) {
		latency := float64(time.Since(start)) / float64(time.Millisecond)
		fullPath := r.URL.Path
		if r.URL.RawQuery != "" {
			fullPath += "?" + r.URL.RawQuery
		}
		s.recorder.Record(r.Method, fullPath, rw.status, latency, client, r.UserAgent(), r.ContentLength, rw.bytesOut)
	}
}

func (s *Server) route(w *statusCapturingWriter, r *http.Request, client string) {
	switch {
	case IsAdminAPIPath(r.URL.Path):
		if s.apiHandler != nil {
			s.apiHandler.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	case IsAdminWSPath(r.URL.Path):
		if s.wsHandler != nil {
			s.wsHandler.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	case r.URL.Path == "/" && IsLoopbackHost(r.Host):
		s.serveLoopbackStatus(w)
	default:
		s.serveProxied(w, r, client)
	}
}

func (s *Server) serveLoopbackStatus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok","service":"backendbuddy"}`)
}

// serveProxied implements spec.md §4.6 steps 1-7.
func (s *Server) serveProxied(w http.ResponseWriter, r *http.Request, client string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	snap, err := s.cfg.Load(ctx)
	if err != nil || snap.Port == 0 {
		httpapi.WriteError(w, http.StatusServiceUnavailable, "no target application configured")
		return
	}

	session, minted := ReadOrMintSession(w, r)
	isLocalhost := IsLocalhostClient(client)

	if snap.QueueEnabled {
		if minted && !s.limiter.Allow(client) {
			httpapi.WriteError(w, http.StatusTooManyRequests, "too many admission attempts, slow down")
			return
		}

		decision := s.admission.Join(session, isLocalhost)
		if decision.Status == admission.StatusWaiting {
			ServeWaitingRoom(w, session, decision.Position)
			return
		}
		s.admission.Heartbeat(session)
	}

	s.forward(w, r, snap.Port)
}

// forward proxies the request to http://127.0.0.1:<port><path>[?query],
// copying headers minus Host/Content-Length, streaming the body through,
// and never following redirects (spec.md §4.6 step 5).
func (s *Server) forward(w http.ResponseWriter, r *http.Request, targetPort int) {
	targetPath := ComputeTargetPath(r.URL.Path)
	targetURL := fmt.Sprintf("http://127.0.0.1:%d%s", targetPort, targetPath)
	if r.URL.RawQuery != "" {
		targetURL += "?" + r.URL.RawQuery
	}

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, r.Body)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	copyForwardHeaders(outReq.Header, r.Header)

	resp, err := s.client.Do(outReq)
	if err != nil {
		s.writeForwardError(w, err, targetPort)
		return
	}
	defer resp.Body.Close()

	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// writeForwardError classifies a forwarding failure per spec.md §7's
// "Target-unreachable" kind: a timed-out dial/read is 504, a failed dial
// (such as a refused connection) is 502 with the literal body shape
// spec.md §8 scenario E requires, anything else is a generic 502.
func (s *Server) writeForwardError(w http.ResponseWriter, err error, targetPort int) {
	target := fmt.Sprintf("http://127.0.0.1:%d/", targetPort)

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		httpapi.WriteError(w, http.StatusGatewayTimeout, "target application timed out")
		logger.Debugw("proxy forward timeout", logger.FieldTargetPort, targetPort)
		return
	}
	if isConnRefused(err) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, `{"error":"Target application not responding","target":%q}`, target)
		return
	}
	httpapi.WriteError(w, http.StatusBadGateway, err.Error())
}

func isConnRefused(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// copyForwardHeaders copies every request header except Host and
// Content-Length, which are regenerated by the outbound client
// (spec.md §4.6 step 5).
func copyForwardHeaders(dst, src http.Header) {
	for k, values := range src {
		if k == "Host" || k == "Content-Length" {
			continue
		}
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

// copyResponseHeaders copies every response header except the set the host
// stack regenerates (spec.md §4.6 step 6).
func copyResponseHeaders(dst, src http.Header) {
	for k, values := range src {
		excluded := false
		for _, h := range hopByHopResponseHeaders {
			if k == h {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

// statusCapturingWriter records the status code and byte count written so
// the traffic middleware can log them without buffering the body.
type statusCapturingWriter struct {
	http.ResponseWriter
	status   int
	bytesOut int64
	wrote    bool
}

func (w *statusCapturingWriter) WriteHeader(status int) {
	if !w.wrote {
		w.status = status
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusCapturingWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.status = http.StatusOK
		w.wrote = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesOut += int64(n)
	return n, err
}

// Hijack allows WebSocket upgrades on /ws/* to pass through unaffected when
// the proxy's traffic middleware wraps the admin mux in front of them.
func (w *statusCapturingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
	}
	return h.Hijack()
}
