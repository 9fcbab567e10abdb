package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prestamix/lending-engine/internal/domain"
)

const balanceCacheTTL = 24 * time.Hour

// BalanceCache keeps per-container balance snapshots in Redis. It is a
// read-side accelerator only: writes are best effort and a miss falls back
// to the database, so cache failures never fail a posting.
type BalanceCache struct {
	redis *redis.Client
	log   *logrus.Logger
}

func NewBalanceCache(redisClient *redis.Client, log *logrus.Logger) *BalanceCache {
	return &BalanceCache{redis: redisClient, log: log}
}

func balanceKey(containerID uuid.UUID) string {
	return "balance:" + containerID.String()
}

// Set stores the post-commit balance for a container.
func (c *BalanceCache) Set(ctx context.Context, containerID uuid.UUID, balance domain.Money) {
	if c.redis == nil {
		return
	}
	err := c.redis.Set(ctx, balanceKey(containerID), int64(balance), balanceCacheTTL).Err()
	if err != nil {
		c.log.WithError(err).WithField("container_id", containerID).Warn("balance cache write failed")
	}
}

// Get returns the cached balance, with ok=false on miss or error.
func (c *BalanceCache) Get(ctx context.Context, containerID uuid.UUID) (domain.Money, bool) {
	if c.redis == nil {
		return 0, false
	}
	raw, err := c.redis.Get(ctx, balanceKey(containerID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).WithField("container_id", containerID).Warn("balance cache read failed")
		}
		return 0, false
	}
	minor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return domain.NewMoney(minor), true
}
