package orders

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/hupe1980/kitchenmesh/logging"
)

// RunFunc starts one workflow run for a generated order. Runs are
// fire-and-forget; failures are the run's own concern and the simulator just
// submits the next order on schedule.
type RunFunc func(ctx context.Context, input string)

// Simulator periodically feeds the kitchen with random orders so the event
// stream has traffic without manual submissions.
type Simulator struct {
	cron      *cron.Cron
	generator Generator
	run       RunFunc
	schedule  string
	logger    logging.Logger
}

// SimulatorOptions configures optional Simulator behavior.
type SimulatorOptions struct {
	// Schedule is a cron spec; defaults to one order every 10 seconds.
	Schedule string

	Logger logging.Logger
}

// NewSimulator creates a simulator submitting orders through run.
func NewSimulator(generator Generator, run RunFunc, optFns ...func(o *SimulatorOptions)) *Simulator {
	opts := SimulatorOptions{
		Schedule: "@every 10s",
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Simulator{
		cron:      cron.New(),
		generator: generator,
		run:       run,
		schedule:  opts.Schedule,
		logger:    opts.Logger,
	}
}

// Start schedules order submission and begins the cron loop.
func (s *Simulator) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.submitOne)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("order simulator started", "schedule", s.schedule)
	return nil
}

// Stop halts scheduling and returns a context that is done once in-flight
// submissions finished.
func (s *Simulator) Stop() context.Context {
	s.logger.Info("order simulator stopping")
	return s.cron.Stop()
}

func (s *Simulator) submitOne() {
	order := s.generator.GenerateRandomOrder()
	s.logger.Info("simulating order", "order", order)
	s.run(context.Background(), order)
}
