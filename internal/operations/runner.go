// Package operations runs the simulated cloud-infrastructure operations the
// dashboard exposes. Each run is recorded as a gcp_operations row.
package operations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"BotDeck/db"

	"go.uber.org/zap"
)

var ErrMissingOperation = errors.New("operation is required")

type Result struct {
	Message string   `json:"message,omitempty"`
	Logs    []string `json:"logs,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type handler func(ctx context.Context) Result

var handlers = map[string]handler{
	"start_server": func(ctx context.Context) Result { return Result{Message: "Server start initiated"} },
	"stop_server":  func(ctx context.Context) Result { return Result{Message: "Server stop initiated"} },
	"pull_files":   func(ctx context.Context) Result { return Result{Message: "File pull initiated"} },
	"push_files":   func(ctx context.Context) Result { return Result{Message: "File push initiated"} },
	"restart_bot":  func(ctx context.Context) Result { return Result{Message: "Bot restart initiated"} },
	"fetch_logs": func(ctx context.Context) Result {
		return Result{
			Message: "Logs fetched",
			Logs: []string{
				"Bot service started successfully",
				"Connected to Discord API",
				"Registered 5 slash commands",
			},
		}
	},
}

// Types lists the supported operation types.
func Types() []string {
	return []string{"start_server", "stop_server", "pull_files", "push_files", "restart_bot", "fetch_logs"}
}

type Runner struct {
	store  db.OperationStore
	logger *zap.Logger
}

func NewRunner(store db.OperationStore, logger *zap.Logger) *Runner {
	return &Runner{store: store, logger: logger}
}

// Run records a pending row, executes the operation and completes that same
// row. Unknown types complete as failed and still return a result.
func (r *Runner) Run(ctx context.Context, operation, initiatedBy string) (*Result, error) {
	if operation == "" {
		return nil, ErrMissingOperation
	}

	op := &db.GCPOperation{OperationType: operation, Status: db.OperationPending}
	if initiatedBy != "" {
		op.InitiatedBy = &initiatedBy
	}
	if err := r.store.CreateOperation(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to record operation: %w", err)
	}

	r.logger.Info("Executing GCP operation", zap.String("operation", operation), zap.String("id", op.ID))

	status := db.OperationCompleted
	var result Result
	if h, ok := handlers[operation]; ok {
		result = h(ctx)
	} else {
		status = db.OperationFailed
		result = Result{Error: "Unknown operation type"}
	}

	details, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal operation result: %w", err)
	}
	if err := r.store.CompleteOperation(ctx, op.ID, status, details); err != nil {
		return nil, fmt.Errorf("failed to complete operation %s: %w", op.ID, err)
	}
	return &result, nil
}
