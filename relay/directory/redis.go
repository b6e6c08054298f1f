package directory

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// Redis keeps membership in redis sets so an external operator (or a future
// second relay instance) can observe room occupancy. Layout:
//
//	<prefix>:room:<name>  set of peer IDs
//	<prefix>:peer:<id>    set of room names (reverse index for LeaveAll)
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Participants(ctx context.Context, room string) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.roomKey(room)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read room members: %w", err)
	}
	sort.Strings(members)
	return members, nil
}

func (r *Redis) Join(ctx context.Context, peer, room string) error {
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, r.roomKey(room), peer)
	pipe.SAdd(ctx, r.peerKey(peer), room)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	return nil
}

func (r *Redis) Leave(ctx context.Context, peer, room string) error {
	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, r.roomKey(room), peer)
	pipe.SRem(ctx, r.peerKey(peer), room)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	return nil
}

func (r *Redis) LeaveAll(ctx context.Context, peer string) error {
	rooms, err := r.client.SMembers(ctx, r.peerKey(peer)).Result()
	if err != nil {
		return fmt.Errorf("failed to read peer rooms: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, room := range rooms {
		pipe.SRem(ctx, r.roomKey(room), peer)
	}
	pipe.Del(ctx, r.peerKey(peer))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to leave rooms: %w", err)
	}
	return nil
}

func (r *Redis) roomKey(room string) string {
	return fmt.Sprintf("%s:room:%s", r.prefix, room)
}

func (r *Redis) peerKey(peer string) string {
	return fmt.Sprintf("%s:peer:%s", r.prefix, peer)
}
