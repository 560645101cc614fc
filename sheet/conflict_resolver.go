package sheet

import (
	"context"
	"fmt"
)

// Resolver chooses how each conflict is resolved, keyed by row id.
type Resolver[R Row] interface {
	ResolveConflicts(ctx context.Context, conflicts []Conflict[R]) (map[string]Choice, error)
}

type ResolutionRequest[R Row] struct {
	Conflicts []Conflict[R]
	RequestID string
}

type ResolutionResponse struct {
	RequestID   string
	Resolutions map[string]Choice
}

// ChannelResolver forwards conflicts to another goroutine (a UI, a test) through
// requestSender and blocks until SubmitResolution delivers the answer.
type ChannelResolver[R Row] struct {
	responses     chan ResolutionResponse
	requestSender func(ResolutionRequest[R]) error
	requests      int
}

func NewChannelResolver[R Row](requestSender func(ResolutionRequest[R]) error) *ChannelResolver[R] {
	return &ChannelResolver[R]{
		responses:     make(chan ResolutionResponse, 1),
		requestSender: requestSender,
	}
}

func (r *ChannelResolver[R]) ResolveConflicts(ctx context.Context, conflicts []Conflict[R]) (map[string]Choice, error) {
	r.requests++
	requestID := fmt.Sprintf("conflict-req-%d-%d", r.requests, len(conflicts))

	if err := r.requestSender(ResolutionRequest[R]{Conflicts: conflicts, RequestID: requestID}); err != nil {
		return nil, fmt.Errorf("failed to send conflict resolution request: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case response := <-r.responses:
		if response.RequestID != requestID {
			return nil, fmt.Errorf("request ID mismatch: expected %s, got %s", requestID, response.RequestID)
		}
		return response.Resolutions, nil
	}
}

func (r *ChannelResolver[R]) SubmitResolution(response ResolutionResponse) {
	r.responses <- response
}
