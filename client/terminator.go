package client

import "context"

// SessionTerminator ends the user's session once its credentials can no
// longer be renewed. Interactive front ends clear storage and navigate away;
// non-interactive callers pass NopTerminator and rely on ErrAuthToken.
type SessionTerminator interface {
	Terminate(ctx context.Context)
}

type TerminatorFunc func(ctx context.Context)

func (f TerminatorFunc) Terminate(ctx context.Context) { f(ctx) }

type NopTerminator struct{}

func (NopTerminator) Terminate(context.Context) {}
