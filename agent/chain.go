package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/kitchenmesh/core"
	"github.com/hupe1980/kitchenmesh/logging"
)

// Chain runs several agents in sequence over one accumulating conversation.
//
// Each stage receives everything earlier stages produced, so later stations
// can see what has already been cooked. Deltas are forwarded as they stream,
// tagged with the emitting stage; only the last stage's terminal delta keeps
// Final set, carrying the whole conversation in Output. An error at any stage
// stops the chain immediately.
type Chain struct {
	name   string
	stages []Agent
	logger logging.Logger
}

// ChainOptions configures optional Chain behavior.
type ChainOptions struct {
	Logger logging.Logger
}

// NewChain creates a sequential chain over the given stages.
func NewChain(name string, stages []Agent, optFns ...func(o *ChainOptions)) *Chain {
	opts := ChainOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Chain{name: name, stages: stages, logger: opts.Logger}
}

// Name returns the chain's name.
func (c *Chain) Name() string { return c.name }

// Stages returns the ordered stage agents.
func (c *Chain) Stages() []Agent { return c.stages }

// Run executes all stages in order. Both returned channels close when the
// chain finishes; an error value means the chain aborted and no terminal
// delta was emitted.
func (c *Chain) Run(ctx context.Context, contents []core.Content) (<-chan Delta, <-chan error) {
	deltaCh := make(chan Delta, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(deltaCh)
		defer close(errCh)

		if len(c.stages) == 0 {
			errCh <- fmt.Errorf("chain %s has no stages", c.name)
			return
		}

		conversation := make([]core.Content, len(contents))
		copy(conversation, contents)

		for i, stage := range c.stages {
			c.logger.Debug("chain.stage.start", "chain", c.name, "stage", stage.ID())

			output, err := c.runStage(ctx, stage, conversation, deltaCh, i == len(c.stages)-1)
			if err != nil {
				errCh <- fmt.Errorf("chain %s failed at stage %s: %w", c.name, stage.ID(), err)
				return
			}
			conversation = append(conversation, output...)
		}
	}()

	return deltaCh, errCh
}

// runStage forwards one stage's deltas and returns the contents it appended.
// The terminal delta of non-last stages is demoted to a plain delta; the last
// stage's terminal delta is rewritten to carry the full conversation.
func (c *Chain) runStage(
	ctx context.Context,
	stage Agent,
	conversation []core.Content,
	deltaCh chan<- Delta,
	last bool,
) ([]core.Content, error) {
	stageDeltas, stageErrs := stage.Run(ctx, conversation)

	var output []core.Content
	for d := range stageDeltas {
		if d.Final {
			output = d.Output
			if !last {
				continue
			}
			full := make([]core.Content, 0, len(conversation)+len(output))
			full = append(full, conversation...)
			full = append(full, output...)
			d.Output = full
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case deltaCh <- d:
		}
	}
	if err, ok := <-stageErrs; ok && err != nil {
		return nil, err
	}
	return output, nil
}
