package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reflectai/reflectai/internal/category"
	"github.com/reflectai/reflectai/internal/config"
	"github.com/reflectai/reflectai/internal/db"
	"github.com/reflectai/reflectai/internal/logging"
	"github.com/reflectai/reflectai/internal/models"
	"github.com/reflectai/reflectai/internal/treestore"
)

// uncategorizedRef selects the tree left behind by a deleted category.
const uncategorizedRef = "uncategorized"

// connectFromConfig loads the config file and opens the database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Open(cfg.Database, cfg.Secrets.DatabasePassword)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s database: %w", cfg.Database.Driver, err)
	}

	return cfg, gormDB, nil
}

// newLogger builds the zap logger described by cfg.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// addConfigFlags registers the flags shared by commands that act for an
// owner.
func addConfigFlags(cmd *cobra.Command, configPath, owner *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to ReflectAI config file")
	cmd.Flags().StringVar(owner, "owner", "", "owner to act for (default: owner from config)")
}

func ownerOrDefault(cfg *config.Config, owner string) string {
	if owner != "" {
		return owner
	}
	return cfg.Owner
}

// findTree resolves ref to a tree key. Besides what findCategory accepts,
// ref may be "uncategorized" for the newest detached tree or a detached key
// as printed by "rai map list".
func findTree(ctx context.Context, gormDB *gorm.DB, store *treestore.Store, ownerID, ref string) (string, error) {
	switch {
	case ref == uncategorizedRef:
		key, err := store.LatestDetached(ctx, ownerID)
		if err != nil {
			return "", err
		}
		if key == treestore.Uncategorized {
			return "", fmt.Errorf("owner %s has no uncategorized map", ownerID)
		}
		return key, nil
	case treestore.IsDetached(ref):
		return ref, nil
	}
	id, _, err := findCategory(gormDB, ownerID, ref)
	return id, err
}

// findCategory resolves ref to a category ID. ref may be a category ID or a
// case-insensitive name. An empty ref picks the owner's first category,
// creating the default one if needed.
func findCategory(gormDB *gorm.DB, ownerID, ref string) (id, name string, err error) {
	cats, err := category.EnsureDefault(gormDB, ownerID)
	if err != nil {
		return "", "", err
	}
	if ref == "" {
		return cats[0].ID, cats[0].Name, nil
	}
	var byName []models.Category
	for _, c := range cats {
		if c.ID == ref {
			return c.ID, c.Name, nil
		}
		if strings.EqualFold(c.Name, ref) {
			byName = append(byName, c)
		}
	}
	switch len(byName) {
	case 0:
		return "", "", fmt.Errorf("%w: %s", category.ErrNotFound, ref)
	case 1:
		return byName[0].ID, byName[0].Name, nil
	default:
		return "", "", errors.New("category name " + ref + " is ambiguous; use the ID")
	}
}
