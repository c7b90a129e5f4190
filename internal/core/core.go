package core

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cuemby/storectl/internal/accesstoken"
	"github.com/cuemby/storectl/internal/acl"
	"github.com/cuemby/storectl/pkg/config"
)

// Core holds one atomically-swappable Handle. Every protocol-layer
// caller resolves the current Handle via Core.Handle() on every
// request rather than holding onto a reference, so a Reconfigure call
// takes effect for the next request without any caller needing to
// restart.
type Core struct {
	handle atomic.Pointer[Handle]
}

// New builds a Core with an initial Handle assembled from cfg and
// deps, and starts its background loops.
func New(cfg *config.Config, deps Dependencies) (*Core, error) {
	h, err := Build(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("build handle: %w", err)
	}
	h.Start()

	c := &Core{}
	c.handle.Store(h)
	return c, nil
}

// Handle returns the currently live Handle.
func (c *Core) Handle() *Handle {
	return c.handle.Load()
}

// Reconfigure builds a fresh Handle from cfg and deps, starts it, and
// publishes it atomically in place of the old one. The old handle is
// stopped only after the swap so there is no window in which neither
// handle's background loops are running.
func (c *Core) Reconfigure(cfg *config.Config, deps Dependencies) error {
	next, err := Build(cfg, deps)
	if err != nil {
		return fmt.Errorf("build handle: %w", err)
	}
	next.Start()

	old := c.handle.Swap(next)
	if old != nil {
		return old.Stop()
	}
	return nil
}

// Stop ends the currently live handle's background loops and releases
// its storage engine.
func (c *Core) Stop() error {
	h := c.handle.Load()
	if h == nil {
		return nil
	}
	return h.Stop()
}

// Evaluate delegates to the currently live Handle's rights check.
func (c *Core) Evaluate(ctx context.Context, token *accesstoken.AccessToken, grantorAccount uint32, collection uint8, containerDocument uint32, required acl.Rights) (bool, error) {
	return c.Handle().Evaluate(ctx, token, grantorAccount, collection, containerDocument, required)
}
