package client

import (
	"fmt"

	"github.com/notemover/notemover/internal/config"
	"github.com/notemover/notemover/internal/events"
	"github.com/notemover/notemover/internal/history"
	"github.com/notemover/notemover/internal/models"
	"github.com/notemover/notemover/internal/rules"
	"github.com/notemover/notemover/internal/service"
	"github.com/notemover/notemover/internal/settings"
	"github.com/notemover/notemover/internal/vault"
)

// Client provides the high-level API for notemover operations.
type Client struct {
	Organizer *service.Organizer
	Ledger    *history.Ledger
	Rules     *rules.Manager
	Migration *rules.MigrationService
	Settings  *settings.Store
	Vault     vault.Vault

	config  *config.Config
	logger  *events.Logger
	matcher rules.Matcher
}

// New creates a client from config, wiring the vault, rule engine, ledger and
// organizer together. Legacy rules are migrated on first load when no V2 set
// exists yet.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	noteVault, err := vault.NewLocalVault(cfg.Vault.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	settingsStore, err := settings.NewStore(cfg.Rules.SettingsFile, logger)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}

	loaded, err := settingsStore.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	migration := rules.NewMigrationService(logger)
	if migration.ShouldMigrate(loaded.Rules, loaded.RulesV2) {
		loaded.RulesV2 = migration.MigrateRules(loaded.Rules)
		if err := settingsStore.Save(loaded); err != nil {
			return nil, fmt.Errorf("save migrated settings: %w", err)
		}
	}

	evaluator := rules.NewEvaluator()

	manager := rules.NewManager(noteVault, evaluator, logger)
	manager.SetRules(loaded.RulesV2)
	manager.SetFilter(cfg.Vault.Excludes)

	var matcher rules.Matcher = manager
	if !cfg.Rules.EnableRuleV2 {
		tree := rules.NewTreeMatcher(noteVault, evaluator, logger)
		tree.SetMaxDepth(cfg.Rules.MaxGroupDepth)
		matcher = rules.NewTreeAdapter(tree, noteVault, loaded.RuleGroups, logger)
	}

	historyStore, err := newHistoryStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	ledger, err := history.NewLedger(noteVault, historyStore, history.Config{
		MaxEntries:      cfg.History.MaxEntries,
		DuplicateWindow: cfg.History.DuplicateWindow,
		Retention: models.RetentionPolicy{
			Value: cfg.History.RetentionValue,
			Unit:  models.RetentionUnit(cfg.History.RetentionUnit),
		},
	}, logger)
	if err != nil {
		historyStore.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	return &Client{
		Organizer: service.NewOrganizer(noteVault, matcher, ledger, logger),
		Ledger:    ledger,
		Rules:     manager,
		Migration: migration,
		Settings:  settingsStore,
		Vault:     noteVault,
		config:    cfg,
		logger:    logger,
		matcher:   matcher,
	}, nil
}

// RetentionPolicy returns the configured retention policy.
func (c *Client) RetentionPolicy() models.RetentionPolicy {
	return models.RetentionPolicy{
		Value: c.config.History.RetentionValue,
		Unit:  models.RetentionUnit(c.config.History.RetentionUnit),
	}
}

// Close releases the ledger store.
func (c *Client) Close() error {
	return c.Ledger.Close()
}

func newHistoryStore(cfg *config.Config, logger *events.Logger) (history.Store, error) {
	switch cfg.History.Backend {
	case "sqlite":
		return history.NewSQLiteStore(cfg.History.File, logger)
	default:
		return history.NewJSONStore(cfg.History.File, logger)
	}
}
