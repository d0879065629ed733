package domain

import "context"

// Provider is the interface to the model backend. Complete is synchronous;
// it sends one accumulated prompt and returns the raw response text.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
	Healthy(ctx context.Context) error
}
