package application

import (
	"context"
	"errors"

	"github.com/oksasatya/fastbb/pkg/helpers"
)

type fakePublisher struct {
	jobs []any
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body)
	return nil
}

// countingHasher wraps a hasher and counts Compare calls.
type countingHasher struct {
	inner    helpers.PasswordHasher
	compares int
}

func (h *countingHasher) Hash(plain string) (string, error) { return h.inner.Hash(plain) }

func (h *countingHasher) Compare(hash, plain string) bool {
	h.compares++
	return h.inner.Compare(hash, plain)
}

var errDBDown = errors.New("connection refused")
