package db

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps every table in process memory. It backs local runs with
// STORE_DRIVER=memory and the package tests.
type MemoryStore struct {
	mu          sync.RWMutex
	commands    map[string]BotCommand
	statuses    []BotStatus
	services    map[string]Service
	connections map[string]UserServiceConnection
	logs        []CommandLog
	operations  map[string]GCPOperation
	servers     map[string]DiscordServer
	roles       map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		commands:    make(map[string]BotCommand),
		services:    make(map[string]Service),
		connections: make(map[string]UserServiceConnection),
		operations:  make(map[string]GCPOperation),
		servers:     make(map[string]DiscordServer),
		roles:       make(map[string]bool),
	}
}

func connectionKey(userDiscordID, serviceID string) string {
	return userDiscordID + "|" + serviceID
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

// Commands

func (s *MemoryStore) ListCommands(ctx context.Context, enabledOnly bool) ([]BotCommand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BotCommand, 0, len(s.commands))
	for _, c := range s.commands {
		if enabledOnly && !c.Enabled {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) GetCommand(ctx context.Context, id string) (*BotCommand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.commands[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) GetCommandByName(ctx context.Context, name string) (*BotCommand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *BotCommand
	for _, c := range s.commands {
		if c.Name != name {
			continue
		}
		c := c
		if found == nil || (c.Enabled && !found.Enabled) {
			found = &c
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) CreateCommand(ctx context.Context, cmd *BotCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if cmd.ID == "" {
		cmd.ID = newID()
	}
	if cmd.Type == "" {
		cmd.Type = CommandTypeSlash
	}
	cmd.CreatedAt, cmd.UpdatedAt = now, now
	s.commands[cmd.ID] = *cmd
	return nil
}

func (s *MemoryStore) UpdateCommand(ctx context.Context, cmd *BotCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.commands[cmd.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = cmd.Name
	existing.Description = cmd.Description
	existing.Type = cmd.Type
	existing.Enabled = cmd.Enabled
	existing.AdminOnly = cmd.AdminOnly
	existing.UpdatedAt = time.Now().UTC()
	s.commands[cmd.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteCommand(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.commands[id]; !ok {
		return ErrNotFound
	}
	delete(s.commands, id)
	return nil
}

// Status

func (s *MemoryStore) GetBotStatus(ctx context.Context) (*BotStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.statuses) == 0 {
		return nil, ErrNotFound
	}
	latest := s.statuses[0]
	for _, st := range s.statuses[1:] {
		if st.UpdatedAt.After(latest.UpdatedAt) ||
			(st.UpdatedAt.Equal(latest.UpdatedAt) && st.ID < latest.ID) {
			latest = st
		}
	}
	return &latest, nil
}

func (s *MemoryStore) SetBotStatus(ctx context.Context, active bool, updatedBy string) (*BotStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := -1
	for i, st := range s.statuses {
		if latest < 0 || st.UpdatedAt.After(s.statuses[latest].UpdatedAt) {
			latest = i
		}
	}

	st := BotStatus{ID: newID(), IsActive: active, UpdatedAt: time.Now().UTC()}
	if updatedBy != "" {
		st.UpdatedBy = &updatedBy
	}
	if latest < 0 {
		s.statuses = append(s.statuses, st)
		return &st, nil
	}
	st.ID = s.statuses[latest].ID
	s.statuses[latest] = st
	return &st, nil
}

// AddStatusRow appends a raw status row, for callers that need several rows.
func (s *MemoryStore) AddStatusRow(st BotStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = newID()
	}
	s.statuses = append(s.statuses, st)
}

// Services

func (s *MemoryStore) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Service, 0, len(s.services))
	for _, svc := range s.services {
		if activeOnly && !svc.Active {
			continue
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetService(ctx context.Context, id string) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &svc, nil
}

func (s *MemoryStore) GetServiceByName(ctx context.Context, name string) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, svc := range s.services {
		if svc.Name == name {
			return &svc, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpsertService(ctx context.Context, svc *Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.services {
		if existing.Name == svc.Name {
			svc.ID = id
			s.services[id] = *svc
			return nil
		}
	}
	if svc.ID == "" {
		svc.ID = newID()
	}
	s.services[svc.ID] = *svc
	return nil
}

// Connections

func (s *MemoryStore) UpsertConnection(ctx context.Context, conn *UserServiceConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := connectionKey(conn.UserDiscordID, conn.ServiceID)
	if existing, ok := s.connections[key]; ok {
		conn.ID = existing.ID
		if conn.RefreshToken == nil {
			conn.RefreshToken = existing.RefreshToken
		}
	} else if conn.ID == "" {
		conn.ID = newID()
	}
	conn.UpdatedAt = time.Now().UTC()

	stored := *conn
	stored.Service = nil
	s.connections[key] = stored
	return nil
}

func (s *MemoryStore) GetConnection(ctx context.Context, userDiscordID, serviceID string) (*UserServiceConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.connections[connectionKey(userDiscordID, serviceID)]
	if !ok {
		return nil, ErrNotFound
	}
	s.attachService(&conn)
	return &conn, nil
}

func (s *MemoryStore) ListConnections(ctx context.Context, userDiscordID string) ([]UserServiceConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UserServiceConnection, 0)
	for _, conn := range s.connections {
		if userDiscordID != "" && conn.UserDiscordID != userDiscordID {
			continue
		}
		s.attachService(&conn)
		out = append(out, conn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) attachService(conn *UserServiceConnection) {
	if svc, ok := s.services[conn.ServiceID]; ok {
		conn.Service = &svc
	}
}

func (s *MemoryStore) DisconnectService(ctx context.Context, userDiscordID, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := connectionKey(userDiscordID, serviceID)
	conn, ok := s.connections[key]
	if !ok {
		return nil
	}
	conn.IsConnected = false
	conn.AccessToken = nil
	conn.RefreshToken = nil
	conn.TokenExpiresAt = nil
	conn.UpdatedAt = time.Now().UTC()
	s.connections[key] = conn
	return nil
}

// Connection count, used by tests asserting upsert semantics.
func (s *MemoryStore) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// Command logs

func (s *MemoryStore) CreateCommandLog(ctx context.Context, entry *CommandLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *MemoryStore) ListCommandLogs(ctx context.Context, limit int) ([]CommandLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CommandLog, 0, len(s.logs))
	for i := len(s.logs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.logs[i])
	}
	return out, nil
}

func (s *MemoryStore) CountCommandLogsSince(ctx context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, entry := range s.logs {
		if !entry.ExecutedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// Operations

func (s *MemoryStore) CreateOperation(ctx context.Context, op *GCPOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op.ID == "" {
		op.ID = newID()
	}
	if op.Status == "" {
		op.Status = OperationPending
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}
	s.operations[op.ID] = *op
	return nil
}

func (s *MemoryStore) CompleteOperation(ctx context.Context, id, status string, details []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.operations[id]
	if !ok || op.Status != OperationPending {
		return ErrNotFound
	}
	now := time.Now().UTC()
	op.Status = status
	op.Details = details
	op.CompletedAt = &now
	s.operations[id] = op
	return nil
}

func (s *MemoryStore) ListOperations(ctx context.Context, limit int) ([]GCPOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]GCPOperation, 0, len(s.operations))
	for _, op := range s.operations {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Servers

func (s *MemoryStore) ListServers(ctx context.Context, activeOnly bool) ([]DiscordServer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DiscordServer, 0, len(s.servers))
	for _, srv := range s.servers {
		if activeOnly && !srv.IsActive {
			continue
		}
		out = append(out, srv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpsertServer(ctx context.Context, srv *DiscordServer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for id, existing := range s.servers {
		if existing.ServerID == srv.ServerID {
			srv.ID = id
			srv.CreatedAt = existing.CreatedAt
			srv.UpdatedAt = now
			s.servers[id] = *srv
			return nil
		}
	}
	if srv.ID == "" {
		srv.ID = newID()
	}
	srv.CreatedAt, srv.UpdatedAt = now, now
	s.servers[srv.ID] = *srv
	return nil
}

func (s *MemoryStore) DeleteServer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.servers[id]; !ok {
		return ErrNotFound
	}
	delete(s.servers, id)
	return nil
}

// Roles

func (s *MemoryStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[userID+"|"+role], nil
}

func (s *MemoryStore) GrantRole(ctx context.Context, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[userID+"|"+role] = true
	return nil
}
