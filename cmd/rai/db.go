package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reflectai/reflectai/internal/category"
	"github.com/reflectai/reflectai/internal/config"
	"github.com/reflectai/reflectai/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ReflectAI database",
		Long:  "Creates the database (MySQL) or file (SQLite), migrates all tables and creates the owner's default category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to ReflectAI config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded config for owner %q from %s\n", cfg.Owner, configPath)

	dbc := cfg.Database
	if dbc.Driver == "mysql" {
		adminDB, err := db.ConnectAdmin(dbc.Host, dbc.Port, dbc.User, cfg.Secrets.DatabasePassword)
		if err != nil {
			return fmt.Errorf("connect to MySQL at %s:%d: %w", dbc.Host, dbc.Port, err)
		}
		if err := db.CreateDatabase(adminDB, dbc.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", dbc.Name)
	}

	gormDB, err := db.Open(dbc, cfg.Secrets.DatabasePassword)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	cats, err := category.EnsureDefault(gormDB, cfg.Owner)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Owner %q has %d categories\n", cfg.Owner, len(cats))

	fmt.Fprintln(out, "\nReflectAI database initialized successfully.")
	return nil
}
