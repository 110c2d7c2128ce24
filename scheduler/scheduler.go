package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"taskmanager/services"

	"github.com/robfig/cron/v3"
)

// ReindexJob re-pushes tasks changed since its last successful run. The
// first run pushes everything.
type ReindexJob struct {
	Tasks *services.TaskService

	mu    sync.Mutex
	since time.Time
	now   func() time.Time
}

func (j *ReindexJob) Run() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.now == nil {
		j.now = time.Now
	}

	started := j.now()
	sent, err := j.Tasks.SyncIndex(context.Background(), j.since)
	if err != nil {
		log.Printf("[scheduler] reindex failed after %d tasks: %v", sent, err)
		return
	}
	j.since = started
	if sent > 0 {
		log.Printf("[scheduler] reindexed %d tasks", sent)
	}
}

// PruneTokensJob deletes expired bearer tokens.
type PruneTokensJob struct {
	Tokens *services.TokenService
}

func (j *PruneTokensJob) Run() {
	n, err := j.Tokens.PruneExpired(context.Background())
	if err != nil {
		log.Printf("[scheduler] prune tokens: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[scheduler] pruned %d expired tokens", n)
	}
}

// StartScheduler registers the background jobs and starts the cron runner.
// An empty reindexSpec leaves the reindex job out.
func StartScheduler(tasks *services.TaskService, tokens *services.TokenService, reindexSpec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if reindexSpec != "" {
		if _, err := c.AddJob(reindexSpec, &ReindexJob{Tasks: tasks}); err != nil {
			return nil, err
		}
	}
	if _, err := c.AddJob("@hourly", &PruneTokensJob{Tokens: tokens}); err != nil {
		return nil, err
	}

	c.Start()
	log.Println("[scheduler] started")
	return c, nil
}
