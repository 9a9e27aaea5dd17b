package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reflectai/reflectai/internal/category"
)

func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage categories",
	}

	cmd.AddCommand(newCategoryListCmd())
	cmd.AddCommand(newCategoryCreateCmd())
	cmd.AddCommand(newCategoryRenameCmd())
	cmd.AddCommand(newCategoryDeleteCmd())
	return cmd
}

func newCategoryListCmd() *cobra.Command {
	var configPath, owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			cats, err := category.EnsureDefault(gormDB, ownerOrDefault(cfg, owner))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED")
			for _, c := range cats {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	addConfigFlags(cmd, &configPath, &owner)
	return cmd
}

func newCategoryCreateCmd() *cobra.Command {
	var configPath, owner string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			c, err := category.Create(gormDB, ownerOrDefault(cfg, owner), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %s (%s)\n", c.Name, c.ID)
			return nil
		},
	}

	addConfigFlags(cmd, &configPath, &owner)
	return cmd
}

func newCategoryRenameCmd() *cobra.Command {
	var configPath, owner string

	cmd := &cobra.Command{
		Use:   "rename <category> <new-name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			ownerID := ownerOrDefault(cfg, owner)
			id, oldName, err := findCategory(gormDB, ownerID, args[0])
			if err != nil {
				return err
			}
			if err := category.Rename(gormDB, ownerID, id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", oldName, args[1])
			return nil
		},
	}

	addConfigFlags(cmd, &configPath, &owner)
	return cmd
}

func newCategoryDeleteCmd() *cobra.Command {
	var configPath, owner string

	cmd := &cobra.Command{
		Use:   "delete <category>",
		Short: "Delete a category, keeping its mind map as uncategorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			ownerID := ownerOrDefault(cfg, owner)
			id, name, err := findCategory(gormDB, ownerID, args[0])
			if err != nil {
				return err
			}
			if err := category.Delete(gormDB, ownerID, id); err != nil {
				if errors.Is(err, category.ErrLastCategory) {
					return fmt.Errorf("%s is your only category; create another one before deleting it", name)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s; its mind map is now uncategorized\n", name)
			return nil
		},
	}

	addConfigFlags(cmd, &configPath, &owner)
	return cmd
}
