package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/hibiken/asynq"
	"github.com/tilapp/til/internal/models"
	"go.uber.org/zap"
)

const passwordResetSubject = "Reset your TIL password"

var passwordResetBody = template.Must(template.New("reset").Parse(
	`<p>Hi {{.Name}},</p>` +
		`<p>Someone asked to reset the password of your TIL account.</p>` +
		`<p><a href="{{.ResetURL}}">Choose a new password</a></p>` +
		`<p>If it was not you, ignore this e-mail.</p>`,
))

// Worker processes e-mail tasks
type Worker struct {
	mailer Mailer
	logger *zap.Logger
}

// NewWorker creates a new worker instance
func NewWorker(mailer Mailer, logger *zap.Logger) *Worker {
	return &Worker{
		mailer: mailer,
		logger: logger,
	}
}

// Register adds the worker's handlers to mux
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePasswordResetEmail, w.HandlePasswordReset)
}

// HandlePasswordReset renders and sends a password reset e-mail.
// Malformed payloads are not retried.
func (w *Worker) HandlePasswordReset(ctx context.Context, t *asynq.Task) error {
	var payload models.PasswordResetEmail
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" || payload.ResetURL == "" {
		return fmt.Errorf("payload without recipient or link: %w", asynq.SkipRetry)
	}

	var body bytes.Buffer
	if err := passwordResetBody.Execute(&body, payload); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	if err := w.mailer.Send(payload.Email, passwordResetSubject, body.String()); err != nil {
		return err
	}

	w.logger.Info("password reset email sent", zap.String("to", payload.Email))
	return nil
}
