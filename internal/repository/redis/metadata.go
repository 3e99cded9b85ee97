package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	metadataPrefix = "conversation:meta:"
	metadataTTL    = 24 * time.Hour
)

// MetadataCache keeps per-conversation metadata (model, vendor, last
// applied settings) in Redis. Entries expire with the conversation's
// working lifetime; the checkpoint store remains the durable record.
type MetadataCache struct {
	client *Client
}

// NewMetadataCache creates a new metadata cache
func NewMetadataCache(client *Client) *MetadataCache {
	return &MetadataCache{client: client}
}

// SetMetadata stores metadata for a conversation, resetting its TTL
func (c *MetadataCache) SetMetadata(ctx context.Context, conversationID string, metadata map[string]any) error {
	key := fmt.Sprintf("%s%s", metadataPrefix, conversationID)

	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, metadataTTL).Err()
}

// GetMetadata retrieves metadata for a conversation. A miss returns
// nil, nil.
func (c *MetadataCache) GetMetadata(ctx context.Context, conversationID string) (map[string]any, error) {
	key := fmt.Sprintf("%s%s", metadataPrefix, conversationID)

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var metadata map[string]any
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return metadata, nil
}
