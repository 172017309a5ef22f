package service

import (
	"context"
	"encoding/json"
	"fmt"

	"notes-server/models"

	"github.com/go-redis/redis/v8"
)

const noteChannelPrefix = "notes:"

// NoteEventPublisher receives every successful note mutation.
type NoteEventPublisher interface {
	PublishNoteEvent(ctx context.Context, event models.NoteEvent) error
}

type NopNoteEventPublisher struct{}

func (NopNoteEventPublisher) PublishNoteEvent(context.Context, models.NoteEvent) error { return nil }

// NoteChannel is the Redis channel carrying events for one author.
func NoteChannel(author string) string {
	return noteChannelPrefix + models.CanonicalID(author)
}

// RedisNoteEventPublisher fans note events out over Redis pub/sub so every
// API instance can relay them to its WebSocket clients.
type RedisNoteEventPublisher struct {
	client *redis.Client
}

func NewRedisNoteEventPublisher(client *redis.Client) *RedisNoteEventPublisher {
	return &RedisNoteEventPublisher{client: client}
}

func (p *RedisNoteEventPublisher) PublishNoteEvent(ctx context.Context, event models.NoteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal note event: %w", err)
	}
	return p.client.Publish(ctx, NoteChannel(event.Author), data).Err()
}

// Subscribe listens on the channels of all authors.
func (p *RedisNoteEventPublisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.client.PSubscribe(ctx, noteChannelPrefix+"*")
}
