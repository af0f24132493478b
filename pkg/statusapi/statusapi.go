// Package statusapi exposes the run coordinator's liveness over HTTP (gin,
// mirroring cmd/tarsy/main.go's "minimal Gin router" health endpoint) and
// over gRPC health checking, for whatever orchestrates the evalcore binary
// itself (a CI job, a k8s liveness probe) to poll without parsing log files.
package statusapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Snapshot is the point-in-time progress a coordinator reports.
type Snapshot struct {
	RunName           string    `json:"run_name"`
	StartedAt         time.Time `json:"started_at"`
	TotalScenarios    int       `json:"total_scenarios"`
	CompletedScenarios int      `json:"completed_scenarios"`
	FailedScenarios   int       `json:"failed_scenarios"`
	InFlight          []string  `json:"in_flight"`
	Interrupted       bool      `json:"interrupted"`
}

// Reporter is a thread-safe holder the coordinator updates as scenarios
// finish and HTTP handlers read from concurrently.
type Reporter struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewReporter(runName string, totalScenarios int) *Reporter {
	return &Reporter{snap: Snapshot{RunName: runName, StartedAt: time.Now(), TotalScenarios: totalScenarios}}
}

func (r *Reporter) SetInFlight(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.InFlight = ids
}

func (r *Reporter) RecordCompletion(failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.CompletedScenarios++
	if failed {
		r.snap.FailedScenarios++
	}
}

func (r *Reporter) SetInterrupted(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.Interrupted = v
}

func (r *Reporter) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// NewRouter builds the gin router serving /health and /status.
func NewRouter(reporter *Reporter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, reporter.Snapshot())
	})

	return router
}

// RegisterHealthServer wires a grpc_health_v1 health service onto srv and
// marks it SERVING immediately; the coordinator's own lifetime is the
// signal callers care about; there is no separate not-serving phase to
// report.
func RegisterHealthServer(srv *grpc.Server) *health.Server {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, h)
	return h
}
