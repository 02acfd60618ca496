package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Chain tries providers in order and returns the first success.
type Chain struct {
	providers []Provider
	log       *slog.Logger
}

func NewChain(log *slog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, log: log}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Len is the number of providers in the chain.
func (c *Chain) Len() int { return len(c.providers) }

func (c *Chain) Complete(ctx context.Context, req Request) (Completion, error) {
	if len(c.providers) == 0 {
		return Completion{}, ErrUnavailable
	}
	var errs []error
	for _, p := range c.providers {
		out, err := p.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return Completion{}, ctx.Err()
		}
		c.log.Warn("provider failed, trying next", "provider", p.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return Completion{}, errors.Join(errs...)
}
