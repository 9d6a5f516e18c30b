package worker

// dlq.go: dead letter lists.
// Jobs and detached notifications that fail are pushed here for manual
// inspection; nothing consumes them automatically. One Redis list per source:
// dlq:{queue}

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix          = "dlq:"
	QueueNotifications = "notificacoes"
)

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
}

// SendToDLQ pushes a failed job to the dead letter list of queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue, jobType string, payload json.RawMessage, reason string) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// RedisFailureLog records detached notification failures in dlq:notificacoes.
type RedisFailureLog struct {
	rdb *redis.Client
}

func NewRedisFailureLog(rdb *redis.Client) *RedisFailureLog {
	return &RedisFailureLog{rdb: rdb}
}

func (l *RedisFailureLog) Record(ctx context.Context, f Failure) {
	SendToDLQ(ctx, l.rdb, QueueNotifications, f.Task, f.Payload, f.Reason)
}
