// Package psm runs a private set-membership test: a client learns whether
// its integer lies in a server's set, the server learns nothing about the
// integer, and the client learns nothing about the set beyond its size.
//
// The server holds P(x) = prod (x - s_i). The client sends Paillier
// encryptions of its query's powers, the server evaluates P under
// encryption, multiplies the result by a random r and returns it. The
// plaintext is zero exactly when the query is in the set.
package psm

import (
	"context"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/ontanj/psm/internal/logger"
)

// Protocol runs complete client/server exchanges in-process.
type Protocol struct {
	opts    []Option
	setting setting
}

func NewProtocol(opts ...Option) *Protocol {
	return &Protocol{opts: opts, setting: newSetting(opts)}
}

func (p *Protocol) SecurityBits() int {
	return p.setting.securityBits
}

// Run tests query against dataset with a fresh key pair.
func (p *Protocol) Run(ctx context.Context, query *big.Int, dataset []*big.Int) (*Result, error) {
	res, _, err := p.RunWithTimings(ctx, query, dataset)
	return res, err
}

// RunWithTimings is Run that also reports the time spent in every step.
func (p *Protocol) RunWithTimings(ctx context.Context, query *big.Int, dataset []*big.Int) (*Result, *Timings, error) {
	return p.run(ctx, NewServer(dataset, p.opts...), query)
}

func (p *Protocol) run(ctx context.Context, server *Server, query *big.Int) (*Result, *Timings, error) {
	var timings Timings
	start := time.Now()
	mark := func(d *time.Duration) func() {
		t := time.Now()
		return func() { *d = time.Since(t) }
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	done := mark(&timings.KeyGeneration)
	client, err := NewClient(query, server.Size(), p.setting.securityBits, p.opts...)
	done()
	if err != nil {
		return nil, nil, err
	}
	defer client.Close()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	done = mark(&timings.ClientEncryption)
	msg, err := client.CreateMessage()
	done()
	if err != nil {
		return nil, nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	done = mark(&timings.ServerComputation)
	reply, err := server.ProcessQuery(msg)
	done()
	if err != nil {
		return nil, nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	done = mark(&timings.ClientDecryption)
	member, err := client.CheckMembership(reply)
	done()
	if err != nil {
		return nil, nil, err
	}
	timings.Total = time.Since(start)

	p.setting.log.Info("membership test done",
		logger.Redacted("query"),
		zap.Int("set_size", server.Size()),
		zap.Duration("elapsed", timings.Total))
	return &Result{
		Query:       new(big.Int).Set(query),
		IsMember:    member,
		DatasetSize: server.Size(),
		Elapsed:     timings.Total,
	}, &timings, nil
}

// TestMembership runs one test with native Paillier keys of securityBits.
func TestMembership(query *big.Int, dataset []*big.Int, securityBits int) (bool, error) {
	res, err := NewProtocol(WithSecurityBits(securityBits)).Run(context.Background(), query, dataset)
	if err != nil {
		return false, err
	}
	return res.IsMember, nil
}
