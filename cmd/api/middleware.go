package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/hafizmfadli/movie-catalog/internal/metrics"
	"golang.org/x/time/rate"
)

// requestID tags every request with an id, reusing the X-Request-ID sent by
// a proxy when there is one, and echoes it back in the response.
func (app *application) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, app.contextSetRequestID(r, id))
	})
}

// recoverPanic turns a panic further down the chain into a 500 and asks
// net/http to drop the connection afterwards.
func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, "Erro interno do servidor", fmt.Errorf("%v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// visitorTTL is how long an idle client keeps its token bucket.
const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors holds one token bucket per client IP.
type visitors struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	byIP  map[string]*visitor
}

func newVisitors(rps float64, burst int) *visitors {
	return &visitors{
		rps:   rate.Limit(rps),
		burst: burst,
		byIP:  make(map[string]*visitor),
	}
}

// allow takes a token from ip's bucket, creating the bucket on first sight.
func (vs *visitors) allow(ip string, now time.Time) bool {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	v, ok := vs.byIP[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(vs.rps, vs.burst)}
		vs.byIP[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep forgets every client idle for longer than visitorTTL.
func (vs *visitors) sweep(now time.Time) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	for ip, v := range vs.byIP {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(vs.byIP, ip)
		}
	}
}

func (vs *visitors) len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.byIP)
}

// sweepEvery runs sweep on every tick until ctx is done.
func (vs *visitors) sweepEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			vs.sweep(now)
		}
	}
}

// rateLimit gives every client IP its own token bucket of Limiter.RPS
// requests per second with bursts of Limiter.Burst. Idle buckets are swept
// once a minute until ctx is done.
func (app *application) rateLimit(ctx context.Context, next http.Handler) http.Handler {
	if !app.config.Limiter.Enabled {
		return next
	}

	vs := newVisitors(app.config.Limiter.RPS, app.config.Limiter.Burst)
	go vs.sweepEvery(ctx, time.Minute)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			app.serverErrorResponse(w, r, "Erro interno do servidor", err)
			return
		}

		if !vs.allow(ip, time.Now()) {
			app.rateLimitExceededResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// corsMethods and corsHeaders are what a trusted origin may use cross-site.
var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"}
)

// enableCORS applies the cross-origin policy for CORS.TrustedOrigins. A "*"
// entry lets every origin in, without credentials. Every OPTIONS request
// ends here with an empty 204 and never reaches the router.
func (app *application) enableCORS(next http.Handler) http.Handler {
	origins := app.config.CORS.TrustedOrigins

	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		AllowCredentials: !slices.Contains(origins, "*"),
	}
	// cors treats an empty AllowedOrigins as "allow all"; an empty list here
	// means nobody.
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	handler := cors.Handler(opts)

	// Preflights are answered by the cors handler itself; a bare OPTIONS
	// without Access-Control-Request-Method falls through to here.
	return handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (mw *metricsResponseWriter) WriteHeader(code int) {
	if !mw.wroteHeader {
		mw.statusCode = code
		mw.wroteHeader = true
	}
	mw.ResponseWriter.WriteHeader(code)
}

func (mw *metricsResponseWriter) Write(b []byte) (int, error) {
	mw.wroteHeader = true
	return mw.ResponseWriter.Write(b)
}

func (mw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

// metrics records the count, latency and status of every request.
func (app *application) metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()

		mw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(mw, r)

		metrics.RecordAPIRequest(r.Method, routeLabel(r.URL.Path), mw.statusCode, time.Since(start))
	})
}

// routeLabel collapses request paths into a bounded set of metric labels.
func routeLabel(p string) string {
	switch {
	case p == "/api/movies" || p == "/api/movies/":
		return "/api/movies"
	case p == "/api/movies/busca", p == "/api/movies/estatisticas":
		return p
	case strings.HasPrefix(p, "/api/movies/"):
		return "/api/movies/:id"
	case p == "/", p == "/api/healthcheck", p == "/metrics":
		return p
	case strings.HasPrefix(p, "/api/"):
		return "/api/other"
	default:
		return "static"
	}
}
