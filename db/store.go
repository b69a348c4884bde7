package db

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

type CommandStore interface {
	ListCommands(ctx context.Context, enabledOnly bool) ([]BotCommand, error)
	GetCommand(ctx context.Context, id string) (*BotCommand, error)
	GetCommandByName(ctx context.Context, name string) (*BotCommand, error)
	CreateCommand(ctx context.Context, cmd *BotCommand) error
	UpdateCommand(ctx context.Context, cmd *BotCommand) error
	DeleteCommand(ctx context.Context, id string) error
}

type StatusStore interface {
	// GetBotStatus returns the most recently updated status row, or
	// ErrNotFound when the table is empty.
	GetBotStatus(ctx context.Context) (*BotStatus, error)
	SetBotStatus(ctx context.Context, active bool, updatedBy string) (*BotStatus, error)
}

type ServiceStore interface {
	ListServices(ctx context.Context, activeOnly bool) ([]Service, error)
	GetService(ctx context.Context, id string) (*Service, error)
	GetServiceByName(ctx context.Context, name string) (*Service, error)
	UpsertService(ctx context.Context, svc *Service) error
}

type ConnectionStore interface {
	// UpsertConnection inserts or overwrites the row keyed by
	// (UserDiscordID, ServiceID).
	UpsertConnection(ctx context.Context, conn *UserServiceConnection) error
	GetConnection(ctx context.Context, userDiscordID, serviceID string) (*UserServiceConnection, error)
	// ListConnections lists every connection when userDiscordID is empty.
	ListConnections(ctx context.Context, userDiscordID string) ([]UserServiceConnection, error)
	DisconnectService(ctx context.Context, userDiscordID, serviceID string) error
}

type CommandLogStore interface {
	CreateCommandLog(ctx context.Context, entry *CommandLog) error
	ListCommandLogs(ctx context.Context, limit int) ([]CommandLog, error)
	CountCommandLogsSince(ctx context.Context, since time.Time) (int64, error)
}

type OperationStore interface {
	CreateOperation(ctx context.Context, op *GCPOperation) error
	CompleteOperation(ctx context.Context, id, status string, details []byte) error
	ListOperations(ctx context.Context, limit int) ([]GCPOperation, error)
}

type ServerStore interface {
	ListServers(ctx context.Context, activeOnly bool) ([]DiscordServer, error)
	UpsertServer(ctx context.Context, srv *DiscordServer) error
	DeleteServer(ctx context.Context, id string) error
}

type RoleStore interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
	GrantRole(ctx context.Context, userID, role string) error
}

type Store interface {
	CommandStore
	StatusStore
	ServiceStore
	ConnectionStore
	CommandLogStore
	OperationStore
	ServerStore
	RoleStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
