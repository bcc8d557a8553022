package worker

// sync_worker.go
// Processes jobs from QueueSync: runs a full product-cache synchronization
// and records the task status in Redis so the API can report progress.

import (
	"context"
	"encoding/json"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	syncTaskPrefix = "sync:task:"
	syncTaskTTL    = 24 * time.Hour

	SyncEstadoEncolada   = "encolada"
	SyncEstadoEnProgreso = "en_progreso"
	SyncEstadoCompletada = "completada"
	SyncEstadoFallida    = "fallida"
)

// SyncJobPayload is the job envelope sent to QueueSync.
type SyncJobPayload struct {
	TaskID string `json:"task_id"`
}

// SyncTaskStatus is the Redis-backed record of one sync run.
type SyncTaskStatus struct {
	TaskID      string           `json:"task_id"`
	Estado      string           `json:"estado"`
	Stats       *model.SyncStats `json:"stats,omitempty"`
	Error       *string          `json:"error,omitempty"`
	IniciadaEn  *time.Time       `json:"iniciada_en,omitempty"`
	TerminadaEn *time.Time       `json:"terminada_en,omitempty"`
}

// SyncTracker persists sync task status under sync:task:{id} with a 24h TTL.
type SyncTracker struct {
	rdb *redis.Client
}

func NewSyncTracker(rdb *redis.Client) *SyncTracker {
	return &SyncTracker{rdb: rdb}
}

// Enqueue registers a new task and pushes its job. Returns the task ID the
// caller can poll.
func (t *SyncTracker) Enqueue(ctx context.Context, dispatcher *Dispatcher) (string, error) {
	taskID := uuid.NewString()
	if err := t.set(ctx, SyncTaskStatus{TaskID: taskID, Estado: SyncEstadoEncolada}); err != nil {
		return "", err
	}
	if err := dispatcher.Dispatch(ctx, JobSyncProductos, SyncJobPayload{TaskID: taskID}); err != nil {
		return "", err
	}
	return taskID, nil
}

// Get returns the status of a task, or nil when unknown or expired.
func (t *SyncTracker) Get(ctx context.Context, taskID string) (*SyncTaskStatus, error) {
	raw, err := t.rdb.Get(ctx, syncTaskPrefix+taskID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var status SyncTaskStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (t *SyncTracker) set(ctx context.Context, status SyncTaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return t.rdb.Set(ctx, syncTaskPrefix+status.TaskID, data, syncTaskTTL).Err()
}

// SyncWorker runs the product-cache synchronization for queued tasks.
type SyncWorker struct {
	syncService service.SyncService
	tracker     *SyncTracker
}

func NewSyncWorker(syncService service.SyncService, tracker *SyncTracker) *SyncWorker {
	return &SyncWorker{syncService: syncService, tracker: tracker}
}

// Process runs one sync task end to end, updating its Redis status before
// and after the run.
func (w *SyncWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload SyncJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("sync_worker: invalid payload")
		return
	}
	if payload.TaskID == "" {
		payload.TaskID = uuid.NewString()
	}

	inicio := time.Now().UTC()
	status := SyncTaskStatus{
		TaskID:     payload.TaskID,
		Estado:     SyncEstadoEnProgreso,
		IniciadaEn: &inicio,
	}
	if err := w.tracker.set(ctx, status); err != nil {
		log.Warn().Err(err).Str("task_id", payload.TaskID).Msg("sync_worker: failed to mark task in progress")
	}

	stats, err := w.syncService.Run(ctx)

	fin := time.Now().UTC()
	status.TerminadaEn = &fin
	status.Stats = stats
	if err != nil {
		msg := err.Error()
		status.Estado = SyncEstadoFallida
		status.Error = &msg
		log.Error().Err(err).Str("task_id", payload.TaskID).Msg("sync_worker: sync failed")
	} else {
		status.Estado = SyncEstadoCompletada
	}

	if err := w.tracker.set(ctx, status); err != nil {
		log.Warn().Err(err).Str("task_id", payload.TaskID).Msg("sync_worker: failed to record final status")
	}
}
