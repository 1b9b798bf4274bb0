package cascade

import (
	"context"
	"time"

	"github.com/orchestra/orchestra/pkg/cascade/adjust"
	"github.com/orchestra/orchestra/pkg/cascade/planning"
	"github.com/orchestra/orchestra/pkg/cascade/progress"
)

// SubtaskRunner performs one subtask, typically by invoking a model with
// subtask.Prompt. Execute calls it once per pending subtask, and a second
// time with an adjusted prompt if the first attempt fails and stage eight
// (pkg/cascade/adjust) produces an adjustment worth retrying.
type SubtaskRunner func(ctx context.Context, subtask planning.Subtask) error

// ExecutionResult is Execute's outcome: the final progress report, and
// whether the run stopped early per Monitor.ShouldStopExecution.
type ExecutionResult struct {
	Report  progress.Report
	Stopped bool
}

// Execute drives plan's subtasks through run in order, exactly the way
// DefaultStages drives a StageInput through the planning stages, except
// that progress monitoring (stage seven) and prompt adjustment (stage
// eight) are execution-time concerns rather than one-shot transforms: a
// subtask only exists to monitor once it is actually running, and an
// adjustment only exists once a subtask has actually failed. Neither fits
// the Stage signature, so Run's caller owns this loop the same way it
// already owns clarification (see DefaultStages' comment).
//
// targetModel and performanceThreshold are forwarded to stage eight and
// stage seven respectively; pass progress.DefaultPerformanceThreshold
// outside of tests.
func Execute(ctx context.Context, plan *planning.ExecutionPlan, targetModel string, performanceThreshold float64, run SubtaskRunner) ExecutionResult {
	monitor := progress.NewMonitor(plan, performanceThreshold)

	for i := range plan.Subtasks {
		subtask := &plan.Subtasks[i]
		if subtask.Status == planning.Completed || subtask.Status == planning.Skipped {
			continue
		}

		if monitor.ShouldStopExecution(progress.DefaultNonPerformanceErrorLimit) {
			return ExecutionResult{Report: monitor.GenerateReport(time.Now()), Stopped: true}
		}

		select {
		case <-ctx.Done():
			return ExecutionResult{Report: monitor.GenerateReport(time.Now()), Stopped: true}
		default:
		}

		subtask.Status = planning.InProgress
		monitor.Start(subtask.ID, time.Now())

		if err := run(ctx, *subtask); err != nil {
			monitor.Update(subtask.ID, planning.Failed, err.Error(), time.Now())
			retryAdjustedSubtask(ctx, monitor, subtask, targetModel, run)
			continue
		}
		monitor.Update(subtask.ID, planning.Completed, "", time.Now())
	}

	return ExecutionResult{Report: monitor.GenerateReport(time.Now())}
}

// retryAdjustedSubtask applies the highest-confidence stage-eight
// adjustment for subtask's most recent obstacle and retries it once.
func retryAdjustedSubtask(ctx context.Context, monitor *progress.Monitor, subtask *planning.Subtask, targetModel string, run SubtaskRunner) {
	report := monitor.GenerateReport(time.Now())
	obstacle, ok := lastObstacleFor(report.Obstacles, subtask.ID)
	if !ok {
		return
	}

	best, ok := adjust.Best(adjust.Generate(obstacle.Kind, *subtask, targetModel))
	if !ok {
		return
	}

	subtask.Prompt = best.Adjusted
	subtask.Status = planning.InProgress
	monitor.Start(subtask.ID, time.Now())

	if err := run(ctx, *subtask); err != nil {
		monitor.Update(subtask.ID, planning.Failed, err.Error(), time.Now())
		return
	}
	monitor.Update(subtask.ID, planning.Completed, "", time.Now())
}

func lastObstacleFor(obstacles []progress.Obstacle, subtaskID string) (progress.Obstacle, bool) {
	for i := len(obstacles) - 1; i >= 0; i-- {
		if obstacles[i].SubtaskID == subtaskID {
			return obstacles[i], true
		}
	}
	return progress.Obstacle{}, false
}
