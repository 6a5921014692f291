package pending

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TypeReminderFire is the asynq task type of a pending reminder
const TypeReminderFire = "reminder:fire"

// listPageSize bounds how many tasks of one state are read per lookup. The
// queue only ever holds a few reminders.
const listPageSize = 100

// QueueStore keeps pending reminders as scheduled asynq tasks in Redis, so
// they survive restarts of the app. Task IDs are "<slot>:<uuid>": a new
// reminder never collides with a task of the same slot that is still being
// processed.
type QueueStore struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	server    *asynq.Server
	queue     string
	onFire    FireFunc
	logger    *zap.SugaredLogger
}

// NewQueueStore connects to Redis; call Start to begin firing reminders
func NewQueueStore(redisOpts asynq.RedisClientOpt, queue string, onFire FireFunc, logger *zap.SugaredLogger) *QueueStore {
	if queue == "" {
		queue = "reminders"
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: len(models.Slots),
			Queues: map[string]int{
				queue: 1,
			},
			Logger: logger,
		},
	)

	return &QueueStore{
		client:    asynq.NewClient(redisOpts),
		inspector: asynq.NewInspector(redisOpts),
		server:    srv,
		queue:     queue,
		onFire:    onFire,
		logger:    logger,
	}
}

// Start runs the worker that fires due reminders in the background
func (s *QueueStore) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderFire, s.handle)

	if err := s.server.Start(mux); err != nil {
		return errors.Wrap(err, "failed starting reminder worker")
	}
	s.logger.Infow("reminder worker started", "queue", s.queue)
	return nil
}

// Close stops the worker and releases the Redis connections
func (s *QueueStore) Close() {
	s.server.Shutdown()
	if err := s.client.Close(); err != nil {
		s.logger.Warnw("failed closing asynq client", "err", err)
	}
	if err := s.inspector.Close(); err != nil {
		s.logger.Warnw("failed closing asynq inspector", "err", err)
	}
}

// Schedule enqueues a task processed at fireAt, replacing the occupant of slot
func (s *QueueStore) Schedule(ctx context.Context, slot models.Slot, fireAt time.Time, payload models.Payload) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	if err := s.Cancel(ctx, slot); err != nil {
		return err
	}

	b, err := json.Marshal(models.ScheduledReminder{Slot: slot, FireAt: fireAt, Payload: payload})
	if err != nil {
		return errors.Wrap(err, "failed encoding reminder")
	}

	task := asynq.NewTask(TypeReminderFire, b)
	info, err := s.client.EnqueueContext(ctx, task,
		asynq.TaskID(taskPrefix(slot)+uuid.NewString()),
		asynq.ProcessAt(fireAt),
		asynq.Queue(s.queue),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return errors.Wrapf(err, "failed enqueueing reminder for slot %s", slot)
	}

	s.logger.Debugw("scheduled reminder", "slot", slot, "task_id", info.ID, "fire_at", fireAt, "event_id", payload.EventID)
	return nil
}

// Cancel deletes the waiting tasks of slot. A task that is already being
// processed has fired and is left alone.
func (s *QueueStore) Cancel(_ context.Context, slot models.Slot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	tasks, err := s.tasks(slot)
	if err != nil {
		return errors.Wrapf(err, "failed listing reminders for slot %s", slot)
	}

	for _, info := range tasks {
		err := s.inspector.DeleteTask(s.queue, info.ID)
		if err != nil && !s.fired(info.ID) {
			return errors.Wrapf(err, "failed deleting reminder for slot %s", slot)
		}
		s.logger.Debugw("cancelled pending reminder", "slot", slot, "task_id", info.ID)
	}
	return nil
}

// Lookup reads back the waiting task of slot
func (s *QueueStore) Lookup(_ context.Context, slot models.Slot) (models.ScheduledReminder, error) {
	if err := checkSlot(slot); err != nil {
		return models.ScheduledReminder{}, err
	}

	tasks, err := s.tasks(slot)
	if err != nil {
		return models.ScheduledReminder{}, errors.Wrapf(err, "failed reading reminder for slot %s", slot)
	}
	if len(tasks) == 0 {
		return models.ScheduledReminder{}, ErrNotFound
	}

	return decodeReminder(tasks[0].Payload)
}

// tasks returns the scheduled and pending tasks of slot
func (s *QueueStore) tasks(slot models.Slot) ([]*asynq.TaskInfo, error) {
	var result []*asynq.TaskInfo

	lists := []func(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error){
		s.inspector.ListScheduledTasks,
		s.inspector.ListPendingTasks,
	}
	for _, list := range lists {
		infos, err := list(s.queue, asynq.PageSize(listPageSize))
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if strings.HasPrefix(info.ID, taskPrefix(slot)) {
				result = append(result, info)
			}
		}
	}
	return result, nil
}

// fired reports whether the task left the waiting states since it was listed
func (s *QueueStore) fired(id string) bool {
	info, err := s.inspector.GetTaskInfo(s.queue, id)
	if errors.Is(err, asynq.ErrTaskNotFound) {
		return true
	}
	return err == nil && info.State != asynq.TaskStateScheduled && info.State != asynq.TaskStatePending
}

func taskPrefix(slot models.Slot) string {
	return string(slot) + ":"
}

func (s *QueueStore) handle(ctx context.Context, task *asynq.Task) error {
	r, err := decodeReminder(task.Payload())
	if err != nil {
		// Returning nil drops the task instead of retrying it.
		s.logger.Errorw("invalid reminder payload", "err", err)
		return nil
	}

	s.logger.Infow("reminder fired", "slot", r.Slot, "event_id", r.Payload.EventID)
	if s.onFire != nil {
		s.onFire(ctx, r)
	}
	return nil
}

func decodeReminder(b []byte) (models.ScheduledReminder, error) {
	var r models.ScheduledReminder
	if err := json.Unmarshal(b, &r); err != nil {
		return models.ScheduledReminder{}, errors.Wrap(err, "failed decoding reminder")
	}
	if err := checkSlot(r.Slot); err != nil {
		return models.ScheduledReminder{}, err
	}
	return r, nil
}
