package tmpsi

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/niclabs/tmpsi/gbf"
	"github.com/niclabs/tmpsi/logging"
	"github.com/niclabs/tmpsi/paillier"
)

// Strict returns the reference elements held by every contributor, in
// reference order.
func (s *Session) Strict(ctx context.Context, contributors []Party, reference []*big.Int) ([]*big.Int, error) {
	return s.Intersect(ctx, ModeStrict, contributors, reference)
}

// Threshold returns the reference elements held by at least the configured
// threshold of contributors, in reference order.
func (s *Session) Threshold(ctx context.Context, contributors []Party, reference []*big.Int) ([]*big.Int, error) {
	return s.Intersect(ctx, ModeThreshold, contributors, reference)
}

// Intersect runs one round of the given mode. The reference party is the
// session itself, so a round has len(contributors)+1 parties. Repeated
// reference elements are kept. Any error aborts the whole round.
func (s *Session) Intersect(ctx context.Context, mode Mode, contributors []Party, reference []*big.Int) ([]*big.Int, error) {
	s.round.Lock()
	defer s.round.Unlock()

	result, stats, err := s.intersect(ctx, mode, contributors, reference)
	if err != nil {
		s.logger.Error(ctx, "round aborted", "mode", mode, "error", err)
		return nil, fmt.Errorf("tmpsi: %s round: %w", mode, err)
	}
	s.statsMu.Lock()
	s.stats = stats
	s.statsMu.Unlock()
	return result, nil
}

func (s *Session) intersect(ctx context.Context, mode Mode, contributors []Party, reference []*big.Int) ([]*big.Int, Stats, error) {
	start := time.Now()
	stats := Stats{Mode: mode, Parties: len(contributors) + 1, Elements: len(reference)}

	if mode != ModeStrict && mode != ModeThreshold {
		return nil, stats, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	if len(contributors) == 0 {
		return nil, stats, ErrNoContributors
	}
	if err := checkElements("reference", reference); err != nil {
		return nil, stats, err
	}
	for i, p := range contributors {
		if err := checkElements(fmt.Sprintf("contributor %d", i), p.Elements); err != nil {
			return nil, stats, err
		}
	}
	t := len(contributors) + 1
	if mode == ModeThreshold {
		threshold, err := s.threshold(t)
		if err != nil {
			return nil, stats, err
		}
		stats.Threshold = threshold
	}

	logger := s.logger.With("mode", mode, "parties", t)
	logger.Info(ctx, "round started",
		"reference", len(reference),
		"threshold", stats.Threshold,
		logging.Redacted("elements"))

	filters, built, err := s.buildFilters(ctx, contributors)
	if err != nil {
		return nil, stats, err
	}
	stats.FiltersBuilt = built
	stats.FiltersCached = len(filters) - built
	logger.Debug(ctx, "filters ready", "built", stats.FiltersBuilt, "cached", stats.FiltersCached)

	queries := s.helper.Queries()
	include := make([]bool, len(reference))
	err = s.forEach(ctx, len(reference), func(w *worker, i int) error {
		element := reference[i].String()
		var err error
		if mode == ModeStrict {
			include[i], err = s.strictMember(w, filters, element, t)
		} else {
			include[i], err = s.thresholdMember(w, filters, element, stats.Threshold)
		}
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	result := make([]*big.Int, 0)
	for i, ok := range include {
		if ok {
			result = append(result, new(big.Int).Set(reference[i]))
		}
	}
	stats.HelperQueries = s.helper.Queries() - queries
	stats.Intersection = len(result)
	stats.Duration = time.Since(start)
	logger.Info(ctx, "round finished",
		"intersection", stats.Intersection,
		"helper_queries", stats.HelperQueries,
		"duration", stats.Duration)
	return result, stats, nil
}

// threshold returns the effective threshold for t parties.
func (s *Session) threshold(t int) (int, error) {
	threshold := s.cfg.Threshold
	if threshold == 0 {
		threshold = ThresholdFor(t)
	}
	if threshold < 1 || threshold > t-1 {
		return 0, fmt.Errorf("%w: threshold must be between 1 and %d for %d parties, but it is %d",
			ErrInvalidArgument, t-1, t, threshold)
	}
	return threshold, nil
}

func checkElements(owner string, elements []*big.Int) error {
	for i, e := range elements {
		if e == nil {
			return fmt.Errorf("%w: %s element %d is nil", ErrInvalidArgument, owner, i)
		}
	}
	return nil
}

func canonical(elements []*big.Int) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.String()
	}
	return out
}

// buildFilters returns one generated filter per contributor and how many of
// them were built rather than taken from the cache.
func (s *Session) buildFilters(ctx context.Context, contributors []Party) ([]*gbf.Filter, int, error) {
	pk := s.kp.PublicKey
	filters := make([]*gbf.Filter, len(contributors))
	var pending []int
	for i, p := range contributors {
		if s.cache != nil && p.ID != "" {
			if f, ok := s.cache.get(p, pk); ok {
				filters[i] = f
				continue
			}
		}
		pending = append(pending, i)
	}

	err := s.forEach(ctx, len(pending), func(w *worker, k int) error {
		i := pending[k]
		elements := gbf.Distinct(canonical(contributors[i].Elements))
		f, err := gbf.New(len(elements), pk, &gbf.Params{Lambda: s.cfg.Lambda, RandSource: w.rand})
		if err != nil {
			return fmt.Errorf("contributor %d: %w", i, err)
		}
		if err := f.Generate(elements); err != nil {
			return fmt.Errorf("contributor %d: %w", i, err)
		}
		filters[i] = f
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if s.cache != nil {
		for _, i := range pending {
			if contributors[i].ID != "" {
				s.cache.put(contributors[i], pk, filters[i])
			}
		}
	}
	return filters, len(pending), nil
}

func queryShares(filters []*gbf.Filter, element string) ([]*paillier.EncryptedNumber, error) {
	shares := make([]*paillier.EncryptedNumber, len(filters))
	for j, f := range filters {
		share, err := f.QueryCiphertext(element)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", j, err)
		}
		shares[j] = share
	}
	return shares, nil
}

// strictMember sums the shares of element, which decrypts to t-1 exactly
// when every contributor holds it, shifts the sum to zero and tests it for
// equality with an encrypted zero.
func (s *Session) strictMember(w *worker, filters []*gbf.Filter, element string, t int) (bool, error) {
	shares, err := queryShares(filters, element)
	if err != nil {
		return false, err
	}
	x, err := paillier.Sum(shares...)
	if err != nil {
		return false, err
	}
	if x, err = x.AddPlain(big.NewInt(int64(-(t - 1)))); err != nil {
		return false, err
	}
	zero, err := w.pk.EncryptInt(0)
	if err != nil {
		return false, err
	}
	eq, err := w.initiator.Equal(x, zero)
	if err != nil {
		return false, err
	}
	m, err := s.kp.PrivateKey.DecryptSigned(eq)
	if err != nil {
		return false, err
	}
	return m.Cmp(big.NewInt(2)) == 0, nil
}

// thresholdMember turns every share into an encrypted 2 or 0 with SEP, sums
// them into twice the number of holders and compares that sum with twice
// the threshold.
func (s *Session) thresholdMember(w *worker, filters []*gbf.Filter, element string, threshold int) (bool, error) {
	shares, err := queryShares(filters, element)
	if err != nil {
		return false, err
	}
	one, err := w.pk.EncryptInt(1)
	if err != nil {
		return false, err
	}
	alphas := make([]*paillier.EncryptedNumber, len(shares))
	for j, share := range shares {
		if alphas[j], err = w.initiator.Equal(share, one); err != nil {
			return false, err
		}
	}
	beta, err := paillier.Sum(alphas...)
	if err != nil {
		return false, err
	}
	below, err := w.initiator.LessThan(beta, big.NewInt(int64(2*threshold)))
	if err != nil {
		return false, err
	}
	m, err := s.kp.PrivateKey.DecryptSigned(below)
	if err != nil {
		return false, err
	}
	return m.Sign() < 0, nil
}
