package db

import (
	"time"

	"gorm.io/datatypes"
)

const (
	CommandTypeSlash = "slash"

	RoleAdmin = "admin"
	RoleUser  = "user"

	OperationPending   = "pending"
	OperationCompleted = "completed"
	OperationFailed    = "failed"
)

type BotCommand struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"column:command_name;not null;index" json:"command_name"`
	Description string    `gorm:"not null" json:"description"`
	Type        string    `gorm:"column:command_type;not null;default:slash" json:"command_type"`
	Enabled     bool      `gorm:"column:is_enabled;not null" json:"is_enabled"`
	AdminOnly   bool      `gorm:"column:is_admin_only;not null;default:false" json:"is_admin_only"`
	CreatedBy   *string   `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (BotCommand) TableName() string { return "bot_commands" }

type BotStatus struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	UpdatedBy *string   `json:"updated_by"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (BotStatus) TableName() string { return "bot_status" }

type Service struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"column:service_name;uniqueIndex;not null" json:"service_name" yaml:"service_name"`
	DisplayName string `gorm:"not null" json:"display_name" yaml:"display_name"`
	IconEmoji   string `json:"icon_emoji" yaml:"icon_emoji"`
	OAuthScope  string `gorm:"column:oauth_scope;not null" json:"oauth_scope" yaml:"oauth_scope"`
	Active      bool   `gorm:"column:is_active;not null" json:"is_active" yaml:"is_active"`
}

func (Service) TableName() string { return "available_services" }

// UserServiceConnection holds encrypted OAuth tokens. Token columns are NULL
// whenever IsConnected is false.
type UserServiceConnection struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserDiscordID  string     `gorm:"not null;uniqueIndex:idx_user_service,priority:1" json:"user_discord_id"`
	ServiceID      string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_service,priority:2" json:"service_id"`
	IsConnected    bool       `gorm:"not null;default:false" json:"is_connected"`
	AccessToken    *string    `gorm:"type:text" json:"-"`
	RefreshToken   *string    `gorm:"type:text" json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at"`
	ConnectedAt    *time.Time `json:"connected_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

func (UserServiceConnection) TableName() string { return "user_service_connections" }

type CommandLog struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	CommandID     *string   `gorm:"type:uuid" json:"command_id"`
	ServerID      *string   `json:"server_id"`
	UserDiscordID string    `gorm:"not null" json:"user_discord_id"`
	CommandName   string    `json:"command_name"`
	Success       bool      `gorm:"not null" json:"success"`
	ErrorMessage  *string   `json:"error_message"`
	ExecutedAt    time.Time `gorm:"index" json:"executed_at"`
}

func (CommandLog) TableName() string { return "command_logs" }

type GCPOperation struct {
	ID            string         `gorm:"primaryKey;type:uuid" json:"id"`
	OperationType string         `gorm:"not null" json:"operation_type"`
	Status        string         `gorm:"not null;default:pending" json:"status"`
	Details       datatypes.JSON `json:"details"`
	InitiatedBy   *string        `json:"initiated_by"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at"`
}

func (GCPOperation) TableName() string { return "gcp_operations" }

type DiscordServer struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	ServerID   string    `gorm:"uniqueIndex;not null" json:"server_id"`
	ServerName string    `gorm:"not null" json:"server_name"`
	IconURL    *string   `json:"icon_url"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	AddedBy    *string   `json:"added_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (DiscordServer) TableName() string { return "discord_servers" }

type UserRole struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_user_role,priority:1" json:"user_id"`
	Role      string    `gorm:"not null;default:user;uniqueIndex:idx_user_role,priority:2" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRole) TableName() string { return "user_roles" }
