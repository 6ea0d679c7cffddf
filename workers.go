package tmpsi

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/niclabs/tmpsi/compare"
	"github.com/niclabs/tmpsi/internal/prng"
	"github.com/niclabs/tmpsi/paillier"
)

// worker is the per-goroutine state of a round. Its generator is never
// shared, so neither are the nonces and blinding signs drawn from it.
type worker struct {
	rand      io.Reader
	pk        *paillier.PublicKey
	initiator *compare.Initiator
}

func (s *Session) newWorkers(n int) ([]*worker, error) {
	workers := make([]*worker, n)
	for i := range workers {
		r, err := prng.NewFrom(s.cfg.RandSource)
		if err != nil {
			return nil, fmt.Errorf("tmpsi: seeding worker %d: %w", i, err)
		}
		workers[i] = &worker{
			rand:      r,
			pk:        s.kp.PublicKey.WithRandSource(r),
			initiator: s.initiator.WithRandSource(r),
		}
	}
	return workers, nil
}

// forEach calls fn for every index in [0, n) on up to cfg.Workers
// goroutines. Worker w handles indexes w, w+W, w+2W... The first error
// cancels the remaining work and is returned.
func (s *Session) forEach(ctx context.Context, n int, fn func(w *worker, i int) error) error {
	if n == 0 {
		return ctx.Err()
	}
	count := s.cfg.Workers
	if count > n {
		count = n
	}
	workers, err := s.newWorkers(count)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	for wi, w := range workers {
		wi, w := wi, w
		g.Go(func() error {
			for i := wi; i < n; i += count {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(w, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
