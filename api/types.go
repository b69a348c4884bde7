package api

import "time"

type serviceUserRequest struct {
	ServiceID     string `json:"serviceId"`
	UserDiscordID string `json:"userDiscordId"`
}

type userConnectionsRequest struct {
	UserDiscordID string `json:"userDiscordId"`
}

type logCommandRequest struct {
	CommandID     *string `json:"command_id"`
	CommandName   string  `json:"command_name"`
	ServerID      *string `json:"server_id"`
	UserDiscordID string  `json:"user_discord_id"`
	Success       bool    `json:"success"`
	ErrorMessage  *string `json:"error_message"`
}

type commandRequest struct {
	Name        string `json:"command_name"`
	Description string `json:"description"`
	Type        string `json:"command_type"`
	Enabled     *bool  `json:"is_enabled"`
	AdminOnly   bool   `json:"is_admin_only"`
}

type serverRequest struct {
	ServerID   string  `json:"server_id"`
	ServerName string  `json:"server_name"`
	IconURL    *string `json:"icon_url"`
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

type statusResponse struct {
	IsActive  bool       `json:"isActive"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	UpdatedBy *string    `json:"updatedBy,omitempty"`
}

type operationRequest struct {
	Operation string `json:"operation"`
}

type statsResponse struct {
	TotalServers    int   `json:"totalServers"`
	TotalCommands   int   `json:"totalCommands"`
	ActiveCommands  int   `json:"activeCommands"`
	CommandsLast24h int64 `json:"commandsLast24h"`
}
