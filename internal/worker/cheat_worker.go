package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aulalink/aula-backend/internal/config"
	"github.com/aulalink/aula-backend/internal/model"
)

const (
	CheatBatchSize    = 50
	CheatBatchTimeout = 2 * time.Second
	CheatPollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// CheatWorker batches proctoring events from persist_cheats_queue into
// cheat_events. Events are write-heavy during an exam and read rarely,
// so they never block the request path.
type CheatWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewCheatWorker creates a new CheatWorker.
func NewCheatWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *CheatWorker {
	return &CheatWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "cheat_worker").Logger(),
	}
}

// Start begins the batching loop. Call in a goroutine.
func (w *CheatWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]*model.CheatJob, 0, CheatBatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 &&
			(len(buffer) >= CheatBatchSize || time.Since(lastFlush) >= CheatBatchTimeout) {

			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, CheatPollTimeout, config.WorkerKey.PersistCheatsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check the flush timer.
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var job model.CheatJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &job)
	}
}

// flushSafe attempts bulk insert, then falls back to row-by-row with requeue.
func (w *CheatWorker) flushSafe(ctx context.Context, batch []*model.CheatJob) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *CheatWorker) bulkInsert(ctx context.Context, batch []*model.CheatJob) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, job := range batch {
		rows = append(rows, []interface{}{
			job.SessionID, job.ParticipantID, job.EventType, []byte(job.Payload), job.RecordedAt,
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"cheat_events"},
		[]string{"session_id", "participant_id", "event_type", "payload", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *CheatWorker) fallbackInsert(ctx context.Context, batch []*model.CheatJob) {
	requeueList := make([]*model.CheatJob, 0)

	for _, job := range batch {
		_, err := w.pool.Exec(ctx,
			`INSERT INTO cheat_events (session_id, participant_id, event_type, payload, recorded_at)
			 VALUES ($1, $2, $3, $4::jsonb, $5)`,
			job.SessionID, job.ParticipantID, job.EventType, []byte(job.Payload), job.RecordedAt,
		)
		if err != nil {
			w.log.Error().Err(err).
				Str("participant_id", job.ParticipantID.String()).
				Msg("Insert failed, requeueing")
			requeueList = append(requeueList, job)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *CheatWorker) requeue(ctx context.Context, items []*model.CheatJob) {
	pipe := w.rdb.Pipeline()
	for _, job := range items {
		data, _ := json.Marshal(job)
		pipe.RPush(ctx, config.WorkerKey.PersistCheatsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Avoid thrashing while the database is down.
	time.Sleep(2 * time.Second)
}

func (w *CheatWorker) shutdown(buffer []*model.CheatJob) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
