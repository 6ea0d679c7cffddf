package tmpsi

import (
	"errors"

	"github.com/niclabs/tmpsi/paillier"
)

var (
	// ErrNoContributors is returned by a round without contributing parties.
	ErrNoContributors = errors.New("tmpsi: no contributing parties")
	// ErrUnknownMode is returned for a Mode that names no round.
	ErrUnknownMode = errors.New("tmpsi: unknown mode")
	// ErrInvalidArgument is paillier.ErrInvalidArgument, re-exported so
	// callers of this package need not import paillier to test for it.
	ErrInvalidArgument = paillier.ErrInvalidArgument
)
