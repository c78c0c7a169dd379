// Package tasks holds background jobs: password reset e-mails delivered through asynq
// and the periodic purge of expired credentials.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/tilapp/til/internal/models"
)

// TypePasswordResetEmail is the asynq task type of password reset e-mails
const TypePasswordResetEmail = "email:password_reset"

// QueueImmediate is the queue for user-facing tasks
const QueueImmediate = "immediate"

// Enqueuer is the part of *asynq.Client used to publish tasks
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewPasswordResetTask builds the task carrying a password reset e-mail
func NewPasswordResetTask(payload models.PasswordResetEmail) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task payload: %w", err)
	}
	return asynq.NewTask(TypePasswordResetEmail, data, asynq.MaxRetry(5)), nil
}

// Publisher enqueues e-mail tasks for the worker
type Publisher struct {
	client Enqueuer
}

// NewPublisher creates a new task publisher
func NewPublisher(client Enqueuer) *Publisher {
	return &Publisher{client: client}
}

// EnqueuePasswordReset schedules delivery of a password reset e-mail
func (p *Publisher) EnqueuePasswordReset(ctx context.Context, payload models.PasswordResetEmail) error {
	task, err := NewPasswordResetTask(payload)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task, asynq.Queue(QueueImmediate)); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", TypePasswordResetEmail, err)
	}
	return nil
}
