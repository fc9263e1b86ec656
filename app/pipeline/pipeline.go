package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Status is the lifecycle state of one stage within a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Stage is one entry in the fixed ordered registry: a name and a
// concrete handle, resolved at startup.
type Stage struct {
	Name string
	Run  func(ctx context.Context, date string) error
}

// Policy makes stage criticality explicit. SkipOnFailure maps a stage
// name to the downstream stages that become pointless when it fails.
// MinSuccessful is the smallest number of succeeded stages that still
// counts as a viable run.
type Policy struct {
	SkipOnFailure map[string][]string
	MinSuccessful int
}

// DefaultPolicy skips everything downstream of a failed discovery except
// cleanup, and skips audio and publishing when summarization fails.
func DefaultPolicy() Policy {
	return Policy{
		SkipOnFailure: map[string][]string{
			"discover":  {"scrape", "summarize", "audio", "publish"},
			"summarize": {"audio", "publish"},
		},
		MinSuccessful: 4,
	}
}

// StageReport is the outcome of one stage.
type StageReport struct {
	Name     string
	Status   Status
	Duration time.Duration
	Error    string
}

// RunReport is the immutable aggregate outcome of one pipeline run. It
// is built up during Run and returned once; nothing reads it mid-run.
type RunReport struct {
	Date      string
	StartedAt time.Time
	Duration  time.Duration
	Stages    []StageReport
	Success   bool
}

// Succeeded counts the stages that completed successfully.
func (r RunReport) Succeeded() int {
	count := 0
	for _, s := range r.Stages {
		if s.Status == StatusSucceeded {
			count++
		}
	}
	return count
}

// Runner executes the stage registry strictly in order, once per
// invocation.
type Runner struct {
	stages []Stage
	policy Policy
}

func NewRunner(stages []Stage, policy Policy) *Runner {
	return &Runner{stages: stages, policy: policy}
}

// Run drives every stage through Pending, Running, and one of Succeeded,
// Failed, or Skipped. A failure never aborts the run; downstream stages
// named by the policy are skipped and the rest still execute. The
// aggregate succeeds when no critical stage failed and enough stages
// succeeded.
func (r *Runner) Run(ctx context.Context, date string) RunReport {
	report := RunReport{
		Date:      date,
		StartedAt: time.Now(),
		Stages:    make([]StageReport, 0, len(r.stages)),
	}

	skip := make(map[string]bool)
	criticalFailed := false

	for _, stage := range r.stages {
		if skip[stage.Name] {
			slog.Warn("Stage skipped", "stage", stage.Name, "date", date)
			report.Stages = append(report.Stages, StageReport{Name: stage.Name, Status: StatusSkipped})
			continue
		}

		slog.Info("Stage started", "stage", stage.Name, "date", date)
		stageStart := time.Now()

		err := stage.Run(ctx, date)
		elapsed := time.Since(stageStart)

		if err != nil {
			slog.Error("Stage failed", "stage", stage.Name, "error", err, "duration", elapsed)
			report.Stages = append(report.Stages, StageReport{
				Name:     stage.Name,
				Status:   StatusFailed,
				Duration: elapsed,
				Error:    err.Error(),
			})

			if downstream, ok := r.policy.SkipOnFailure[stage.Name]; ok {
				criticalFailed = true
				for _, name := range downstream {
					skip[name] = true
				}
			}
			continue
		}

		slog.Info("Stage completed", "stage", stage.Name, "duration", elapsed)
		report.Stages = append(report.Stages, StageReport{
			Name:     stage.Name,
			Status:   StatusSucceeded,
			Duration: elapsed,
		})
	}

	report.Duration = time.Since(report.StartedAt)
	report.Success = !criticalFailed && report.Succeeded() >= r.policy.MinSuccessful

	slog.Info("Pipeline run completed",
		"date", date,
		"success", report.Success,
		"succeeded", report.Succeeded(),
		"stages", len(report.Stages),
		"duration", report.Duration)

	return report
}
