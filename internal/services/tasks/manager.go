// Package tasks runs download and conversion jobs on a bounded worker
// pool and tracks their lifecycle.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/utils"
)

// Func is the work executed for a task. It reports progress through
// report and returns the path of the produced file.
type Func func(ctx context.Context, report func(models.Progress)) (string, error)

type entry struct {
	task   models.Task
	cancel context.CancelFunc
	done   chan struct{}
}

type Manager struct {
	mu     sync.RWMutex
	tasks  map[string]*entry
	sem    chan struct{}
	wg     sync.WaitGroup
	closed bool
}

func NewManager(maxConcurrent int) *Manager {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Manager{
		tasks: make(map[string]*entry),
		// Semaphore bounding concurrent running tasks
		sem: make(chan struct{}, maxConcurrent),
	}
}

// Submit registers a new task and schedules fn on the pool. The task
// starts in pending state and moves to running once a worker slot is
// free.
func (m *Manager) Submit(ctx context.Context, taskType models.TaskType, url, inputFile string, fn Func) (*models.Task, error) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	e := &entry{
		task: models.Task{
			ID:        uuid.New().String(),
			Type:      taskType,
			Status:    models.TaskStatusPending,
			URL:       url,
			InputFile: inputFile,
			CreatedAt: time.Now().UTC(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("task manager is shutting down")
	}
	m.tasks[e.task.ID] = e
	m.wg.Add(1)
	m.mu.Unlock()

	utils.LogInfo(ctx, "task submitted", utils.Fields{
		"task_id": e.task.ID,
		"type":    string(taskType),
	})

	go m.run(runCtx, e, fn)

	t := e.task
	return &t, nil
}

func (m *Manager) run(ctx context.Context, e *entry, fn Func) {
	defer m.wg.Done()
	defer close(e.done)

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		m.finish(e, "", ctx.Err())
		return
	}

	if !m.transition(e, models.TaskStatusRunning) {
		return
	}

	report := func(p models.Progress) {
		m.mu.Lock()
		if e.task.Status == models.TaskStatusRunning {
			e.task.Progress = p.Percent
			e.task.Speed = p.Speed
			e.task.ETA = p.ETA
		}
		m.mu.Unlock()
	}

	output, err := fn(ctx, report)
	m.finish(e, output, err)
}

// transition moves a pending task to running. Returns false if the
// task was cancelled before a worker picked it up.
func (m *Manager) transition(e *entry, status models.TaskStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.task.Status.IsTerminal() {
		return false
	}
	now := time.Now().UTC()
	e.task.Status = status
	e.task.StartedAt = &now
	return true
}

func (m *Manager) finish(e *entry, output string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.task.Status.IsTerminal() {
		return
	}

	now := time.Now().UTC()
	e.task.FinishedAt = &now

	switch {
	case err == nil:
		e.task.Status = models.TaskStatusCompleted
		e.task.Progress = 100
		e.task.OutputFile = output
		e.task.Speed = ""
		e.task.ETA = ""
	case errors.Is(err, context.Canceled):
		e.task.Status = models.TaskStatusCancelled
	default:
		e.task.Status = models.TaskStatusFailed
		msg := err.Error()
		e.task.ErrorMessage = &msg
	}
}

// Get returns a snapshot of the task.
func (m *Manager) Get(id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.tasks[id]
	if !ok {
		return nil, utils.NewTaskNotFoundError(id)
	}
	t := e.task
	return &t, nil
}

// List returns all tasks, newest first, optionally filtered by status.
func (m *Manager) List(status models.TaskStatus) []models.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Task, 0, len(m.tasks))
	for _, e := range m.tasks {
		if status != "" && e.task.Status != status {
			continue
		}
		out = append(out, e.task)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Cancel stops a pending or running task.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	e, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return utils.NewTaskNotFoundError(id)
	}
	if e.task.Status.IsTerminal() {
		status := string(e.task.Status)
		m.mu.Unlock()
		return utils.NewTaskNotCancellableError(id, status)
	}
	m.mu.Unlock()

	e.cancel()
	return nil
}

// Delete removes a finished task from the registry.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.tasks[id]
	if !ok {
		return utils.NewTaskNotFoundError(id)
	}
	if !e.task.Status.IsTerminal() {
		return utils.NewValidationError("only finished tasks can be deleted", map[string]interface{}{
			"task_id": id,
			"status":  string(e.task.Status),
		})
	}
	delete(m.tasks, id)
	return nil
}

// ClearFinished removes all terminal tasks and returns how many were
// dropped.
func (m *Manager) ClearFinished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.tasks {
		if e.task.Status.IsTerminal() {
			delete(m.tasks, id)
			n++
		}
	}
	return n
}

// Stats counts tasks by status.
func (m *Manager) Stats() models.TaskStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := models.TaskStats{Total: len(m.tasks)}
	for _, e := range m.tasks {
		switch e.task.Status {
		case models.TaskStatusPending:
			s.Pending++
		case models.TaskStatusRunning:
			s.Running++
		case models.TaskStatusCompleted:
			s.Completed++
		case models.TaskStatusFailed:
			s.Failed++
		case models.TaskStatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// Wait blocks until the task finishes or ctx expires, then returns the
// final snapshot.
func (m *Manager) Wait(ctx context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	e, ok := m.tasks[id]
	m.mu.RUnlock()
	if !ok {
		return nil, utils.NewTaskNotFoundError(id)
	}

	select {
	case <-e.done:
		return m.Get(id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops accepting new tasks and waits for running ones. Tasks
// still queued or running when ctx expires are cancelled.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		for _, e := range m.tasks {
			if !e.task.Status.IsTerminal() {
				e.cancel()
			}
		}
		m.mu.Unlock()
		<-done
		return ctx.Err()
	}
}
