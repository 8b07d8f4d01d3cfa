// Package runner launches the fetch job as a subprocess and guards
// against overlapping runs.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kavinm/tn-district-weather/internal/metrics"
	"github.com/kavinm/tn-district-weather/internal/store"
)

// Runner executes the fetch job and tracks snapshot freshness. At most
// one run is in flight at any time.
type Runner struct {
	store   *store.FileStore
	metrics *metrics.Metrics
	command []string
	ttl     time.Duration

	mu sync.Mutex

	// execute runs one fetch job; tests swap it out.
	execute func(ctx context.Context) error
}

// New builds a runner that shells out to command (split on whitespace)
// and treats snapshots older than ttl as stale.
func New(st *store.FileStore, m *metrics.Metrics, command string, ttl time.Duration) *Runner {
	r := &Runner{
		store:   st,
		metrics: m,
		command: strings.Fields(command),
		ttl:     ttl,
	}
	r.execute = r.runProcess
	return r
}

// Stale reports whether the snapshot is missing or older than the TTL.
func (r *Runner) Stale() bool {
	updated, err := r.store.LastUpdated()
	if err != nil {
		return true
	}
	return time.Since(updated) > r.ttl
}

// TriggerAsync starts a refresh in the background unless one is already
// in flight. It reports whether a run was started.
func (r *Runner) TriggerAsync(reason string) bool {
	if !r.mu.TryLock() {
		r.metrics.JobSkipped()
		return false
	}
	go func() {
		defer r.mu.Unlock()
		r.run(context.Background(), reason)
	}()
	return true
}

// Run refreshes synchronously, waiting for any in-flight run to finish
// first. It returns the run id for correlation with the logs.
func (r *Runner) Run(ctx context.Context, reason string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run(ctx, reason)
}

func (r *Runner) run(ctx context.Context, reason string) (string, error) {
	runID := uuid.NewString()
	log.Printf("runner: starting fetch job run=%s trigger=%s", runID, reason)

	started := time.Now()
	err := r.execute(ctx)
	elapsed := time.Since(started)

	r.metrics.JobFinished(reason, elapsed, err)
	if err != nil {
		log.Printf("runner: fetch job run=%s failed after %s: %v", runID, elapsed.Round(time.Millisecond), err)
		return runID, err
	}
	log.Printf("runner: fetch job run=%s finished in %s", runID, elapsed.Round(time.Millisecond))
	return runID, nil
}

// runProcess invokes the fetch job binary. The job reads the same
// environment as the server, including the provider credential.
func (r *Runner) runProcess(ctx context.Context) error {
	if len(r.command) == 0 {
		return fmt.Errorf("fetch job command is empty")
	}

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Env = os.Environ()

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("fetch job: %w: %s", err, msg)
		}
		return fmt.Errorf("fetch job: %w", err)
	}
	return nil
}

// ObserveSnapshot refreshes the snapshot gauges from the store.
func (r *Runner) ObserveSnapshot() {
	snap, err := r.store.Load()
	if err != nil {
		return
	}
	r.metrics.ObserveSnapshot(time.Since(snap.LastUpdated), len(snap.Districts))
}
