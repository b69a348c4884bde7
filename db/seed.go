package db

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedCommand struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	AdminOnly   bool   `yaml:"admin_only"`
}

type seedCatalog struct {
	Services []Service     `yaml:"services"`
	Commands []seedCommand `yaml:"commands"`
}

func loadSeed() (*seedCatalog, error) {
	var catalog seedCatalog
	if err := yaml.Unmarshal(seedYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	return &catalog, nil
}

// Seed upserts the service catalog and, when the commands table is empty,
// inserts the default command set.
func Seed(ctx context.Context, store interface {
	ServiceStore
	CommandStore
}) error {
	catalog, err := loadSeed()
	if err != nil {
		return err
	}

	for i := range catalog.Services {
		svc := catalog.Services[i]
		if err := store.UpsertService(ctx, &svc); err != nil {
			return fmt.Errorf("seed service %s: %w", svc.Name, err)
		}
	}

	existing, err := store.ListCommands(ctx, false)
	if err != nil {
		return fmt.Errorf("seed commands: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, c := range catalog.Commands {
		cmd := &BotCommand{
			Name:        c.Name,
			Description: c.Description,
			Type:        CommandTypeSlash,
			Enabled:     true,
			AdminOnly:   c.AdminOnly,
		}
		if err := store.CreateCommand(ctx, cmd); err != nil {
			return fmt.Errorf("seed command %s: %w", c.Name, err)
		}
	}
	return nil
}
