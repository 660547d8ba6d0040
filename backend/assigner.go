package backend

import (
	"context"
	"errors"

	"git.sr.ht/~gioverse/skel/stream"
	"github.com/charmbracelet/log"

	"git.sr.ht/~whereswaldon/labelscope/chart"
)

var (
	// ErrNoRequestID rejects assignments that cannot be told apart from
	// others.
	ErrNoRequestID = errors.New("assignment has no request id")
	// ErrDuplicateRequest rejects a request id that is already being
	// persisted.
	ErrDuplicateRequest = errors.New("assignment already submitted")
	// ErrShutdown is returned once the application is shutting down.
	ErrShutdown = errors.New("shutting down")
)

// Assigner persists label assignments in the background. Each submitted
// assignment becomes a mutation whose single value is its outcome.
type Assigner struct {
	pool  *stream.MutationPool[string, chart.AssignmentResult]
	store *Store
}

func NewAssigner(mutator *stream.Mutator, store *Store) *Assigner {
	return &Assigner{
		pool:  stream.NewMutationPool[string, chart.AssignmentResult](mutator),
		store: store,
	}
}

// Submit starts persisting req and returns the mutation that will carry its
// outcome.
func (a *Assigner) Submit(req chart.LabelAssignment) (*stream.Mutation[chart.AssignmentResult], error) {
	if req.RequestID == "" {
		return nil, ErrNoRequestID
	}
	mutation, isNew := stream.Mutate(a.pool, req.RequestID, func(ctx context.Context) <-chan chart.AssignmentResult {
		out := make(chan chart.AssignmentResult, 1)
		go func() {
			defer close(out)
			result := chart.AssignmentResult{RequestID: req.RequestID}
			result.Err = a.store.Assign(req)
			if result.Err != nil {
				log.Error("failed assigning labels", "op", req.Op, "dataset", req.DatasetID, "points", len(req.PointIDs), "err", result.Err)
			} else {
				log.Debug("assigned labels", "op", req.Op, "dataset", req.DatasetID, "points", len(req.PointIDs), "labels", req.LabelIDs)
			}
			select {
			case out <- result:
			case <-ctx.Done():
			}
		}()
		return out
	})
	switch {
	case mutation == nil:
		return nil, ErrShutdown
	case !isNew:
		return nil, ErrDuplicateRequest
	}
	return mutation, nil
}
