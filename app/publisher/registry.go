package publisher

import (
	"context"
	"fmt"
	"time"

	"postline/app/schedule"
)

var _ schedule.PublishClient = (*Registry)(nil)

// Registry routes publish calls to the client configured for the platform.
type Registry struct {
	clients map[schedule.Platform]*Client
}

func NewRegistry(config *Config, timeout time.Duration) *Registry {
	clients := make(map[schedule.Platform]*Client, len(config.Platforms))
	for name, endpoint := range config.Platforms {
		clients[schedule.Platform(name)] = NewClient(endpoint, timeout)
	}
	return &Registry{clients: clients}
}

// Platforms returns the platforms with a configured endpoint.
func (r *Registry) Platforms() []schedule.Platform {
	platforms := make([]schedule.Platform, 0, len(r.clients))
	for p := range r.clients {
		platforms = append(platforms, p)
	}
	return platforms
}

func (r *Registry) Publish(ctx context.Context, platform schedule.Platform, content string) (string, error) {
	client, ok := r.clients[platform]
	if !ok {
		// No endpoint configured; retrying cannot fix this.
		return "", &schedule.PublishError{
			Kind:    schedule.FailureRejected,
			Message: fmt.Sprintf("no publish endpoint configured for platform %q", platform),
		}
	}
	return client.Publish(ctx, content)
}
