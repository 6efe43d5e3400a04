package main

import (
	"context"
	"fmt"
	"time"

	corrections "github.com/anniinakinnunen/MuonCorrections/pkg"
	"github.com/google/uuid"
)

type RunResult struct {
	Dataset  corrections.DatasetConfig
	RunID    string
	Summary  corrections.Summary
	Duration time.Duration
	Err      error
}

// Each dataset is corrected by a single worker. Workers share only the
// corrector, which is read-only.
func worker(ctx context.Context, id int, config corrections.Configuration, corrector corrections.Corrector,
	dryRun bool, jobs <-chan corrections.DatasetConfig, results chan<- RunResult) {
	for dataset := range jobs {
		results <- correctDataset(ctx, id, config, corrector, dryRun, dataset)
	}
}

func correctDataset(ctx context.Context, id int, config corrections.Configuration, corrector corrections.Corrector,
	dryRun bool, dataset corrections.DatasetConfig) (result RunResult) {
	result = RunResult{Dataset: dataset, RunID: uuid.NewString()}
	runLogger := logger.WithRun(dataset.Name, result.RunID)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("worker %d recovered from panic: %v", id, r)
		}
		result.Duration = time.Since(start)
	}()

	runLogger.Info(fmt.Sprintf("Worker %d processing %s", id, dataset.FileIn), "worker")
	processor, err := corrections.NewProcessor(config.ProcessingConfig(dataset), corrector)
	if err != nil {
		result.Err = err
		return result
	}

	var sink corrections.RecordSink
	if dryRun {
		sink = corrections.NewMemorySink()
	}
	result.Summary, result.Err = corrections.CorrectDataset(ctx, dataset, processor, sink)
	return result
}

func sendRunsToWorkers(runs []corrections.DatasetConfig, jobs chan<- corrections.DatasetConfig) {
	for _, run := range runs {
		jobs <- run
	}
	close(jobs)
}

func processWorkerResults(results <-chan RunResult, nRuns int) []RunResult {
	collected := make([]RunResult, 0, nRuns)
	for result := range results {
		runLogger := logger.WithRun(result.Dataset.Name, result.RunID)
		if result.Err != nil {
			runLogger.Error(fmt.Sprintf("error correcting %s: %v", result.Dataset.FileIn, result.Err))
		} else {
			runLogger.Info(fmt.Sprintf("%d events read, %d written, %d skipped in %d ms",
				result.Summary.Read, result.Summary.Emitted, result.Summary.Skipped,
				result.Duration.Milliseconds()), "worker")
		}
		collected = append(collected, result)
		if len(collected) == nRuns {
			break
		}
	}
	return collected
}

func runAll(ctx context.Context, config corrections.Configuration, corrector corrections.Corrector, dryRun bool) []RunResult {
	if len(config.Runs) == 0 {
		return nil
	}
	numWorkers := config.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobs := make(chan corrections.DatasetConfig, len(config.Runs))
	results := make(chan RunResult, len(config.Runs))

	for w := 1; w <= numWorkers; w++ {
		go worker(ctx, w, config, corrector, dryRun, jobs, results)
	}
	go sendRunsToWorkers(config.Runs, jobs)

	return processWorkerResults(results, len(config.Runs))
}
