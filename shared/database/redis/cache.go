package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/pkg/metrics"
)

const (
	lz4FrameMagic = 0x184D2204
)

// CacheManager stores serialized objects in Redis with per-prefix TTLs and
// optional compression for large payloads
type CacheManager struct {
	client  *Client
	config  *Config
	logger  *logging.Logger
	metrics *metrics.Collector

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// NewCacheManager creates a new cache manager
func NewCacheManager(client *Client, config *Config, logger *logging.Logger, collector *metrics.Collector) *CacheManager {
	cm := &CacheManager{
		client:  client,
		config:  config,
		logger:  logger.WithComponent("cache"),
		metrics: collector,
	}

	cm.logger.Info("Cache manager initialized",
		logging.String("serialization", config.Cache.Serialization),
		logging.Bool("compression", config.Cache.Compression.Enabled),
		logging.Duration("default_ttl", config.Cache.DefaultTTL))

	return cm
}

// StoreObject serializes an object and stores it under the prefix and key.
// Payloads at or above the compression threshold are compressed when the
// prefix opts in.
func (cm *CacheManager) StoreObject(ctx context.Context, prefix, key string, obj interface{}) error {
	data, err := SerializeObject(obj, cm.config.Cache.Serialization)
	if err != nil {
		cm.recordOperation("set", "error")
		return fmt.Errorf("failed to serialize object: %w", err)
	}

	if cm.config.Cache.Compression.Enabled && cm.config.PrefixCompress(prefix) {
		if len(data) >= cm.config.Cache.Compression.Threshold {
			compressed, err := CompressData(data, cm.config.Cache.Compression)
			if err != nil {
				cm.logger.Warn("Failed to compress payload", logging.Any("error", err))
			} else {
				data = compressed
			}
		}
	}

	fullKey := cm.config.GetCacheKey(prefix, key)
	if err := cm.client.Set(ctx, fullKey, data, cm.config.PrefixTTL(prefix)); err != nil {
		cm.recordOperation("set", "error")
		return err
	}

	cm.recordOperation("set", "ok")
	return nil
}

// GetObject retrieves and deserializes an object. It returns false without
// an error when the key does not exist.
func (cm *CacheManager) GetObject(ctx context.Context, prefix, key string, obj interface{}) (bool, error) {
	fullKey := cm.config.GetCacheKey(prefix, key)

	data, found, err := cm.client.Get(ctx, fullKey)
	if err != nil {
		cm.recordOperation("get", "error")
		return false, err
	}
	if !found {
		cm.recordMiss()
		return false, nil
	}

	if isCompressed(data, cm.config.Cache.Compression.Algorithm) {
		decompressed, err := DecompressData(data, cm.config.Cache.Compression)
		if err != nil {
			cm.recordOperation("get", "error")
			return false, fmt.Errorf("failed to decompress payload: %w", err)
		}
		data = decompressed
	}

	if err := DeserializeObject(data, obj, cm.config.Cache.Serialization); err != nil {
		cm.recordOperation("get", "error")
		return false, fmt.Errorf("failed to deserialize object: %w", err)
	}

	cm.recordHit()
	return true, nil
}

// Delete removes an object from the cache
func (cm *CacheManager) Delete(ctx context.Context, prefix, key string) error {
	if err := cm.client.Del(ctx, cm.config.GetCacheKey(prefix, key)); err != nil {
		cm.recordOperation("delete", "error")
		return err
	}

	cm.recordOperation("delete", "ok")
	return nil
}

// Keys returns the bare keys stored under a prefix
func (cm *CacheManager) Keys(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := cm.config.KeyPrefix + prefix
	scanned, err := cm.client.Scan(ctx, fullPrefix+"*")
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(scanned))
	for _, k := range scanned {
		keys = append(keys, strings.TrimPrefix(k, fullPrefix))
	}

	return keys, nil
}

// Stats returns cache statistics including per-prefix key counts
func (cm *CacheManager) Stats(ctx context.Context) (map[string]interface{}, error) {
	info, err := cm.client.Info(ctx, "memory")
	if err != nil {
		return nil, fmt.Errorf("failed to get memory info: %w", err)
	}

	prefixCounts := make(map[string]int)
	for prefix := range cm.config.Cache.Prefixes {
		keys, err := cm.Keys(ctx, prefix)
		if err != nil {
			cm.logger.Warn("Failed to count keys for prefix",
				logging.String("prefix", prefix),
				logging.Any("error", err))
			continue
		}
		prefixCounts[prefix] = len(keys)
	}

	cm.mu.Lock()
	hits, misses := cm.hits, cm.misses
	cm.mu.Unlock()

	return map[string]interface{}{
		"memory_info":   info,
		"prefix_counts": prefixCounts,
		"hits":          hits,
		"misses":        misses,
	}, nil
}

func (cm *CacheManager) recordOperation(operation, result string) {
	if cm.metrics != nil {
		cm.metrics.RecordCacheOperation(operation, result)
	}
}

func (cm *CacheManager) recordHit() {
	cm.recordOperation("get", "hit")

	cm.mu.Lock()
	cm.hits++
	hits, misses := cm.hits, cm.misses
	cm.mu.Unlock()

	cm.updateHitRatio(hits, misses)
}

func (cm *CacheManager) recordMiss() {
	cm.recordOperation("get", "miss")

	cm.mu.Lock()
	cm.misses++
	hits, misses := cm.hits, cm.misses
	cm.mu.Unlock()

	cm.updateHitRatio(hits, misses)
}

func (cm *CacheManager) updateHitRatio(hits, misses uint64) {
	if cm.metrics == nil || hits+misses == 0 {
		return
	}
	cm.metrics.RecordCacheHitRatio("archive", float64(hits)/float64(hits+misses))
}

// isCompressed detects a compressed payload by its frame magic so values
// below the compression threshold can be read back without a trial
// decompression.
func isCompressed(data []byte, algorithm string) bool {
	switch algorithm {
	case "gzip":
		return len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b
	default:
		return len(data) > 4 && binary.LittleEndian.Uint32(data[:4]) == lz4FrameMagic
	}
}
