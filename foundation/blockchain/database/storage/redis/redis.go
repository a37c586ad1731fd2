// Package redis implements the ability to read and write blocks to a redis
// list, one JSON encoded block per element.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/redis/go-redis/v9"
)

// keyPrefix is the namespace for all the keys owned by the ledger.
const keyPrefix = "ledger"

// Config represents the settings needed to connect to redis.
type Config struct {
	Addr      string
	Username  string
	Password  string
	DB        int
	Namespace string
	Timeout   time.Duration
}

// Redis represents the serialization implementation for reading and storing
// blocks in a redis list. This implements the database.Storage interface.
type Redis struct {
	conn    *redis.Client
	key     string
	timeout time.Duration
}

// New constructs a Redis value for use and checks the connection.
func New(ctx context.Context, cfg Config) (*Redis, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	r := Redis{
		conn:    conn,
		key:     blocksKey(cfg.Namespace),
		timeout: timeout,
	}

	return &r, nil
}

// blocksKey constructs the key holding the chain for a namespace:
//
//	"ledger:blocks:<namespace>"
func blocksKey(namespace string) string {
	if namespace == "" {
		namespace = "default"
	}
	return fmt.Sprintf("%s:blocks:%s", keyPrefix, namespace)
}

// Close closes the connection to redis.
func (r *Redis) Close() error {
	return r.conn.Close()
}

// Write appends the block to the list. Blocks must be written in order.
func (r *Redis) Write(number uint64, block database.Block) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	l, err := r.conn.LLen(ctx, r.key).Result()
	if err != nil {
		return err
	}

	if uint64(l)+1 != number {
		return fmt.Errorf("block is out of order, got %d, exp %d", number, l+1)
	}

	return r.conn.RPush(ctx, r.key, data).Err()
}

// GetBlock returns the specified block by number.
func (r *Redis) GetBlock(number uint64) (database.Block, error) {
	if number == 0 {
		return database.Block{}, fmt.Errorf("block %d: %w", number, database.ErrBlockNotFound)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	val, err := r.conn.LIndex(ctx, r.key, int64(number-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return database.Block{}, fmt.Errorf("block %d: %w", number, database.ErrBlockNotFound)
		}
		return database.Block{}, err
	}

	var block database.Block
	if err := json.Unmarshal([]byte(val), &block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (r *Redis) ForEach() database.Iterator {
	return &redisIterator{redis: r}
}

// Reset removes the chain from redis.
func (r *Redis) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	return r.conn.Del(ctx, r.key).Err()
}

// =============================================================================

// redisIterator walks the list one element at a time.
type redisIterator struct {
	redis   *Redis
	current uint64
	eoc     bool
}

// Next retrieves the next block from redis.
func (ri *redisIterator) Next() (database.Block, error) {
	if ri.eoc {
		return database.Block{}, database.ErrEndOfChain
	}

	ri.current++
	block, err := ri.redis.GetBlock(ri.current)
	if errors.Is(err, database.ErrBlockNotFound) {
		ri.eoc = true
		return database.Block{}, database.ErrEndOfChain
	}

	return block, err
}

// Done returns the end of chain value.
func (ri *redisIterator) Done() bool {
	return ri.eoc
}
