package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/parliament/internal/model"
	"github.com/freeeve/parliament/pkg/election"
)

// Key patterns for Redis election state.
func snapshotKey(electionID string) string       { return "election:" + electionID + ":snapshot" }
func draftKey(electionID, draftID string) string { return "election:" + electionID + ":draft:" + draftID }
func commitLockKey(electionID string) string     { return "election:" + electionID + ":commit_lock" }

// releaseLock deletes the lock only while it still belongs to the caller.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SetSnapshot caches the current snapshot of an election.
func (c *Client) SetSnapshot(ctx context.Context, electionID string, snap *election.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return c.rdb.Set(ctx, snapshotKey(electionID), data, 0).Err()
}

// GetSnapshot returns the cached snapshot, or nil on a cache miss.
func (c *Client) GetSnapshot(ctx context.Context, electionID string) (*election.Snapshot, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(electionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap := election.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// DeleteSnapshot drops the cached snapshot.
func (c *Client) DeleteSnapshot(ctx context.Context, electionID string) error {
	return c.rdb.Del(ctx, snapshotKey(electionID)).Err()
}

// SaveDraft stores a plan draft that expires after ttl.
func (c *Client) SaveDraft(ctx context.Context, draft *model.PlanDraft, ttl time.Duration) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	return c.rdb.Set(ctx, draftKey(draft.ElectionID, draft.ID), data, ttl).Err()
}

// GetDraft returns a draft, or nil if it never existed or has expired.
func (c *Client) GetDraft(ctx context.Context, electionID, draftID string) (*model.PlanDraft, error) {
	data, err := c.rdb.Get(ctx, draftKey(electionID, draftID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	var d model.PlanDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// DeleteDraft removes a draft.
func (c *Client) DeleteDraft(ctx context.Context, electionID, draftID string) error {
	return c.rdb.Del(ctx, draftKey(electionID, draftID)).Err()
}

// AcquireCommitLock takes the per-election commit lock for owner.
// The lock expires after ttl so a crashed holder cannot block commits.
func (c *Client) AcquireCommitLock(ctx context.Context, electionID, owner string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, commitLockKey(electionID), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire commit lock: %w", err)
	}
	return ok, nil
}

// ReleaseCommitLock releases the lock if owner still holds it.
func (c *Client) ReleaseCommitLock(ctx context.Context, electionID, owner string) error {
	if err := releaseLock.Run(ctx, c.rdb, []string{commitLockKey(electionID)}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release commit lock: %w", err)
	}
	return nil
}
