package psm

import (
	"context"
	"errors"
	"math/big"
	mrand "math/rand"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch(t *testing.T) {
	dataset := BigInts(10, 25, 42, 73, 99)
	queries := BigInts(42, 43, 10, 0, 99, 100, 73)
	want := []bool{true, false, true, false, true, false, true}

	results, err := newTestProtocol(WithWorkers(3)).Batch(context.Background(), queries, dataset)
	require.NoError(t, err)
	require.Len(t, results, len(queries))
	for i, res := range results {
		assert.Equal(t, 0, queries[i].Cmp(res.Query), "result %d out of order", i)
		assert.Equal(t, want[i], res.IsMember, "query %v", queries[i])
		assert.Equal(t, 5, res.DatasetSize)
	}

	results, err = Batch(context.Background(), nil, dataset, testBits)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchFailure(t *testing.T) {
	_, err := newTestProtocol().Batch(context.Background(), []*big.Int{big.NewInt(1), nil}, BigInts(1))
	assert.True(t, errors.Is(err, ErrMalformedMessage))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := newTestProtocol().Batch(ctx, BigInts(1, 2, 3), BigInts(1))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, results)
}

func TestConcurrency(t *testing.T) {
	assert.Equal(t, 4, newSetting([]Option{WithWorkers(4)}).concurrency())
	assert.Equal(t, runtime.GOMAXPROCS(0), newSetting([]Option{WithWorkers(0)}).concurrency())
	assert.Equal(t, runtime.GOMAXPROCS(0), newSetting(nil).concurrency())
}

func TestBatchSharedRandom(t *testing.T) {
	random := mrand.New(mrand.NewSource(1))
	p := newTestProtocol(WithWorkers(4), WithRandom(random))
	results, err := p.Batch(context.Background(), BigInts(1, 2, 3, 4, 5, 6), BigInts(2, 4, 6))
	require.NoError(t, err)
	for i, res := range results {
		assert.Equal(t, i%2 == 1, res.IsMember, "query %v", res.Query)
	}
}

func TestRandomIsSerialized(t *testing.T) {
	s := newSetting([]Option{WithRandom(mrand.New(mrand.NewSource(1)))})
	_, ok := s.random.(*lockedReader)
	assert.True(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 64)
			for j := 0; j < 100; j++ {
				_, err := s.random.Read(buf)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
