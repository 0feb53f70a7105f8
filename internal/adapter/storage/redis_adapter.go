package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

const (
	productKeyPrefix  = "product:"
	stockKeyPrefix    = "stock:"
	reservedKeyPrefix = "reserved:"
)

// reserveScript moves the reserved count against availability in one
// atomic step, closing the read-then-write race at the store.
var reserveScript = redis.NewScript(`
local stock = tonumber(redis.call('GET', KEYS[1]) or '0')
local reserved = tonumber(redis.call('GET', KEYS[2]) or '0')
local quantity = tonumber(ARGV[1])

if stock - reserved >= quantity then
	redis.call('INCRBY', KEYS[2], quantity)
	return 1
end

return 0
`)

var releaseScript = redis.NewScript(`
local reserved = tonumber(redis.call('GET', KEYS[1]) or '0')
local quantity = tonumber(ARGV[1])

local next = reserved - quantity
if next < 0 then
	next = 0
end
redis.call('SET', KEYS[1], next)
return next
`)

// RedisAdapter keeps the per (seller, product) stock counts and product
// snapshots. It implements port.InventoryStore and port.AtomicReserver.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func productKey(sellerID, code string) string  { return productKeyPrefix + sellerID + ":" + code }
func stockKey(sellerID, code string) string    { return stockKeyPrefix + sellerID + ":" + code }
func reservedKey(sellerID, code string) string { return reservedKeyPrefix + sellerID + ":" + code }

func (r *RedisAdapter) GetProduct(ctx context.Context, sellerID, code string) (*domain.Product, error) {
	fields, err := r.client.HGetAll(ctx, productKey(sellerID, code)).Result()
	if err != nil {
		return nil, fmt.Errorf("read product: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	counts, err := r.client.MGet(ctx, stockKey(sellerID, code), reservedKey(sellerID, code)).Result()
	if err != nil {
		return nil, fmt.Errorf("read stock counts: %w", err)
	}

	price, _ := strconv.ParseFloat(fields["price"], 64)
	product := &domain.Product{
		SellerID:    sellerID,
		Code:        code,
		Name:        fields["name"],
		Description: fields["description"],
		Price:       price,
		ImageURL:    fields["image_url"],
		Active:      fields["active"] == "1",
		Stock:       parseCount(counts[0]),
		Reserved:    parseCount(counts[1]),
	}
	return product, nil
}

func (r *RedisAdapter) GetAvailable(ctx context.Context, sellerID, code string) (int, error) {
	counts, err := r.client.MGet(ctx, stockKey(sellerID, code), reservedKey(sellerID, code)).Result()
	if err != nil {
		return 0, fmt.Errorf("read stock counts: %w", err)
	}
	return parseCount(counts[0]) - parseCount(counts[1]), nil
}

func (r *RedisAdapter) SetReserved(ctx context.Context, sellerID, code string, reserved int) error {
	return r.client.Set(ctx, reservedKey(sellerID, code), reserved, 0).Err()
}

func (r *RedisAdapter) ReserveIfAvailable(ctx context.Context, sellerID, code string, quantity int) (bool, error) {
	result, err := reserveScript.Run(ctx, r.client,
		[]string{stockKey(sellerID, code), reservedKey(sellerID, code)}, quantity).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

func (r *RedisAdapter) ReleaseReserved(ctx context.Context, sellerID, code string, quantity int) error {
	return releaseScript.Run(ctx, r.client, []string{reservedKey(sellerID, code)}, quantity).Err()
}

// PutProduct writes the snapshot and counts, used by seeding and admin
// catalog updates.
func (r *RedisAdapter) PutProduct(ctx context.Context, product domain.Product) error {
	active := "0"
	if product.Active {
		active = "1"
	}
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, productKey(product.SellerID, product.Code), map[string]any{
		"name":        product.Name,
		"description": product.Description,
		"price":       strconv.FormatFloat(product.Price, 'f', 2, 64),
		"image_url":   product.ImageURL,
		"active":      active,
	})
	pipe.Set(ctx, stockKey(product.SellerID, product.Code), product.Stock, 0)
	pipe.Set(ctx, reservedKey(product.SellerID, product.Code), product.Reserved, 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisAdapter) SetStock(ctx context.Context, sellerID, code string, stock int) error {
	return r.client.Set(ctx, stockKey(sellerID, code), stock, 0).Err()
}

func parseCount(v any) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
