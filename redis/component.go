package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/voxboard/component"
	"github.com/kbukum/voxboard/logger"
)

// Component owns a Client's lifecycle for bootstrap.
type Component struct {
	client *Client
	cfg    Config
	log    *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the client eagerly so dependents can be wired before
// Start; Start verifies connectivity.
func NewComponent(cfg Config, log *logger.Logger) (*Component, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("redis")
	client, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Component{client: client, cfg: cfg, log: log}, nil
}

// Client returns the wrapped client.
func (c *Component) Client() *Client { return c.client }

// Name returns the component name.
func (c *Component) Name() string { return "redis" }

// Start pings the server.
func (c *Component) Start(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	c.log.Info("redis component started", logger.Fields("addr", c.client.cfg.Addr))
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(context.Context) error {
	return c.client.Close()
}

// Health pings the server.
func (c *Component) Health(ctx context.Context) component.Health {
	if err := c.client.Ping(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}
