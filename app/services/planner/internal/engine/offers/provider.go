package offers

import "context"

// Provider is the adapter contract every offer source satisfies. A provider
// returns scored candidates or a *ProviderError; the planning pass never
// distinguishes providers beyond that.
type Provider interface {
	Search(ctx context.Context, domain Domain, params Params) ([]Offer, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, domain Domain, params Params) ([]Offer, error)

func (f ProviderFunc) Search(ctx context.Context, domain Domain, params Params) ([]Offer, error) {
	return f(ctx, domain, params)
}
