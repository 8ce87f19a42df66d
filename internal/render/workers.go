package render

import (
	"context"
	"log/slog"
	"sync"
)

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// worker is a goroutine that processes jobs from the jobs channel
// and sends results to the results channel.
func worker(ctx context.Context, id int, logger *slog.Logger, r *Renderer, wg *sync.WaitGroup, jobs <-chan indexedJob, results chan<- indexedResult) {
	defer wg.Done()
	for ij := range jobs {
		job := ij.job
		if err := ctx.Err(); err != nil {
			results <- indexedResult{ij.index, Result{Configs: job.Configs, Error: err}}
			continue
		}

		logger.Info("Worker started job", "worker_id", id, "config", job.Configs)
		result := r.Render(job)
		if result.Error != nil {
			logger.Error("Error rendering page", "worker_id", id, "config", job.Configs, "error", result.Error)
		} else {
			logger.Info("Worker finished job", "worker_id", id, "config", job.Configs, "output", result.Output, "elapsed", result.Elapsed)
		}
		results <- indexedResult{ij.index, result}
	}
}

// Run renders all jobs with workerCount workers. Results keep the order of
// jobs.
func Run(ctx context.Context, logger *slog.Logger, r *Renderer, jobs []Job, workerCount int) []Result {
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}
	if workerCount < 1 {
		workerCount = 1
	}

	logger.Info("Starting render phase", "page_count", len(jobs), "workers", workerCount)
	var wg sync.WaitGroup
	queue := make(chan indexedJob, len(jobs))
	results := make(chan indexedResult, len(jobs))

	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go worker(ctx, w, logger, r, &wg, queue, results)
	}

	for i, job := range jobs {
		queue <- indexedJob{i, job}
	}
	close(queue)

	wg.Wait()
	close(results)
	logger.Info("All render workers finished")

	ordered := make([]Result, len(jobs))
	for ir := range results {
		ordered[ir.index] = ir.result
	}
	return ordered
}
