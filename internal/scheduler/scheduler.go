package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"PipSentinel/internal/champion"
	"PipSentinel/internal/collector"
	"PipSentinel/internal/model"
	"PipSentinel/internal/notifier"
	"PipSentinel/internal/optimizer"
	"PipSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
)

// reportTop is how many ranked results the optimisation message lists.
const reportTop = 5

// ErrBusy is returned when an optimisation is already running.
var ErrBusy = errors.New("optimisation already running")

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the periodic re-optimisation and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Optimizer *optimizer.Optimizer
	Champion  *champion.Store
	Notifier  Sender
	Recorder  recorder.Recorder
	Ctx       context.Context

	running atomic.Bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, opt *optimizer.Optimizer, store *champion.Store, tn Sender, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Optimizer: opt,
		Champion:  store,
		Notifier:  tn,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// Register adds the optimisation job on a six-field cron spec.
func (s *Scheduler) Register(optimizeCron string) error {
	if _, err := s.Cron.AddFunc(optimizeCron, s.optimizeTask); err != nil {
		return fmt.Errorf("register optimize task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunOptimizeNow executes the optimisation immediately (manual trigger / run on start).
func (s *Scheduler) RunOptimizeNow() {
	s.optimizeTask()
}

func (s *Scheduler) optimizeTask() {
	if _, err := s.Optimize(); err != nil {
		if errors.Is(err, ErrBusy) {
			log.Println("[WARN] optimisation skipped: previous run still active")
			return
		}
		log.Printf("[ERROR] optimisation: %v", err)
		s.trySend(fmt.Sprintf("❌ Optimisation failed: %v", err))
	}
}

// Optimize collects fresh data, searches the grid, validates the best
// candidates, updates the champion, records the run and reports it.
func (s *Scheduler) Optimize() (*model.ValidationReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	log.Println("[INFO] running optimisation")
	series, err := s.Collector.Collect(s.Ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	run := recorder.NewRun(series.Symbol, series.Timeframe)
	run.Bars = series.Len()

	search, err := s.Optimizer.Run(s.Ctx, series, nil)
	if err != nil {
		return nil, err
	}
	report := optimizer.Validate(series, nil, search.Results, s.Optimizer.Options)
	report.Evaluated = search.Evaluated
	report.Retained = search.Retained
	report.Elapsed = search.Elapsed

	promoted, err := s.Champion.Apply(run.ID, report)
	if err != nil {
		log.Printf("[ERROR] save champion: %v", err)
	}

	run.GridSize = search.Total
	run.Evaluated = search.Evaluated
	run.Retained = search.Retained
	run.Elapsed = search.Elapsed
	run.Passed = report.Passed
	run.Reason = report.Reason
	if report.Test != nil {
		p := report.Best.Params
		run.Champion = &p
		run.Train = report.Best.Train
		run.Test = report.Test.Metrics
	}
	s.record(run, search.Results, report.Test)

	msg := notifier.FormatOptimizationReport(series.Symbol, search.Results, report, reportTop) +
		"\n" + notifier.FormatValidationReport(report)
	if promoted {
		msg += "\n👑 New champion promoted."
	}
	s.trySend(msg)
	return &report, nil
}

func (s *Scheduler) record(run *recorder.Run, results []model.OptimizerResult, test *model.BacktestResult) {
	if err := s.Recorder.RecordRun(run); err != nil {
		log.Printf("[ERROR] record run: %v", err)
		return
	}
	if err := s.Recorder.RecordResults(run.ID, results); err != nil {
		log.Printf("[ERROR] record results: %v", err)
	}
	if test != nil {
		if err := s.Recorder.RecordTrades(run.ID, test.Segment, test.Trades); err != nil {
			log.Printf("[ERROR] record trades: %v", err)
		}
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/optimize":
		if s.running.Load() {
			return "⏳ An optimisation is already running."
		}
		go s.optimizeTask()
		return "⏳ Optimisation started, the report follows when it finishes."
	case "/champion":
		return notifier.FormatChampion(s.Champion.GetState())
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
