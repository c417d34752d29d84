package push

import (
	"context"
	"fmt"
)

// Router sends each request through the provider registered for the
// device platform.
type Router struct {
	providers map[string]PushProvider
}

func NewRouter() *Router {
	return &Router{providers: make(map[string]PushProvider)}
}

// Register maps platform to p. Registering nil is a no-op.
func (r *Router) Register(platform string, p PushProvider) *Router {
	if p != nil {
		r.providers[platform] = p
	}
	return r
}

func (r *Router) Enabled() bool {
	return len(r.providers) > 0
}

func (r *Router) Send(ctx context.Context, platform string, request *NotificationRequest) (*NotificationResponse, error) {
	p, ok := r.providers[platform]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedPlatform, platform)
	}
	return p.SendNotification(ctx, request)
}
