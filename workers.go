package psm

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batch tests every query against one server. Each query gets its own client
// and key pair. Results are in input order; the first failure cancels the
// rest and no results are returned.
func (p *Protocol) Batch(ctx context.Context, queries []*big.Int, dataset []*big.Int) ([]Result, error) {
	server := NewServer(dataset, p.opts...)
	results := make([]Result, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.setting.concurrency())
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			res, _, err := p.run(ctx, server, q)
			if err != nil {
				return errors.Wrapf(err, "query %d", i)
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.setting.log.Info("batch done", zap.Int("queries", len(queries)), zap.Int("set_size", server.Size()))
	return results, nil
}

// Batch runs queries with native Paillier keys of securityBits.
func Batch(ctx context.Context, queries []*big.Int, dataset []*big.Int, securityBits int) ([]Result, error) {
	return NewProtocol(WithSecurityBits(securityBits)).Batch(ctx, queries, dataset)
}
