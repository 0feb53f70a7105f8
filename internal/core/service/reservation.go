package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/core/domain"
	"github.com/apartalo/live-commerce/internal/port"
)

var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError reports a rejected reservation together with
// the quantity actually available.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

// StockCoordinator mediates between in-memory intent and the external
// inventory count. The backing store offers no transaction across its
// read/write pair, so all reserve/release calls for one product are
// funneled through a per-key mutex; when the store can move the reserved
// count atomically that primitive is used instead of the read-then-write.
type StockCoordinator struct {
	inv     port.InventoryStore
	timeout time.Duration
	log     zerolog.Logger

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

func NewStockCoordinator(inv port.InventoryStore, timeout time.Duration, log zerolog.Logger) *StockCoordinator {
	return &StockCoordinator{
		inv:     inv,
		timeout: timeout,
		log:     log.With().Str("component", "stock_coordinator").Logger(),
		keys:    make(map[string]*sync.Mutex),
	}
}

func (c *StockCoordinator) keyLock(sellerID, code string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := sellerID + "/" + code
	m, ok := c.keys[key]
	if !ok {
		m = &sync.Mutex{}
		c.keys[key] = m
	}
	return m
}

// Reserve holds quantity units against the external available count and
// returns the product snapshot. The count is read fresh on every call,
// never cached across operations.
func (c *StockCoordinator) Reserve(ctx context.Context, sellerID, code string, quantity int) (*domain.Product, error) {
	lock := c.keyLock(sellerID, code)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	product, err := c.inv.GetProduct(ctx, sellerID, code)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.Available() < quantity {
		return nil, &InsufficientStockError{Available: product.Available()}
	}

	if atomic, ok := c.inv.(port.AtomicReserver); ok {
		ok, err := atomic.ReserveIfAvailable(ctx, sellerID, code, quantity)
		if err != nil {
			return nil, fmt.Errorf("reserve stock: %w", err)
		}
		if !ok {
			// Lost to a writer outside this process between read and write.
			avail, _ := c.inv.GetAvailable(ctx, sellerID, code)
			return nil, &InsufficientStockError{Available: avail}
		}
	} else {
		if err := c.inv.SetReserved(ctx, sellerID, code, product.Reserved+quantity); err != nil {
			return nil, fmt.Errorf("reserve stock: %w", err)
		}
	}

	product.Reserved += quantity
	c.log.Debug().
		Str("seller", sellerID).
		Str("code", code).
		Int("quantity", quantity).
		Int("available", product.Available()).
		Msg("stock reserved")
	return product, nil
}

// Release returns quantity units to the available pool, flooring the
// reserved count at zero. Used to compensate a failed downstream step
// and on explicit buyer cancellation.
func (c *StockCoordinator) Release(ctx context.Context, sellerID, code string, quantity int) error {
	lock := c.keyLock(sellerID, code)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if atomic, ok := c.inv.(port.AtomicReserver); ok {
		if err := atomic.ReleaseReserved(ctx, sellerID, code, quantity); err != nil {
			return fmt.Errorf("release stock: %w", err)
		}
		return nil
	}

	product, err := c.inv.GetProduct(ctx, sellerID, code)
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	reserved := product.Reserved - quantity
	if reserved < 0 {
		reserved = 0
	}
	if err := c.inv.SetReserved(ctx, sellerID, code, reserved); err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	c.log.Debug().
		Str("seller", sellerID).
		Str("code", code).
		Int("quantity", quantity).
		Msg("stock released")
	return nil
}
