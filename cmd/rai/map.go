package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reflectai/reflectai/internal/category"
	"github.com/reflectai/reflectai/internal/editor"
	"github.com/reflectai/reflectai/internal/mindmap"
	"github.com/reflectai/reflectai/internal/render"
	"github.com/reflectai/reflectai/internal/report"
	"github.com/reflectai/reflectai/internal/treestore"
)

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Show and edit a category's mind map",
	}

	cmd.AddCommand(newMapListCmd())
	cmd.AddCommand(newMapShowCmd())
	cmd.AddCommand(newMapNodeCmd())
	return cmd
}

type highlightJSON struct {
	CurrentID string   `json:"currentId"`
	PathIDs   []string `json:"pathIds"`
}

type mapJSON struct {
	Title     string        `json:"title"`
	Tree      *mindmap.Node `json:"tree"`
	Highlight highlightJSON `json:"highlight"`
}

// mapTarget holds the flags that select a tree.
type mapTarget struct {
	configPath string
	owner      string
	category   string
}

func (t *mapTarget) register(cmd *cobra.Command) {
	addConfigFlags(cmd, &t.configPath, &t.owner)
	cmd.Flags().StringVar(&t.category, "category", "", "category ID or name, \"uncategorized\" or a key from \"map list\" (default: first category)")
}

// withEditor opens the selected tree, runs fn against its editor and waits
// for the resulting save to land.
func withEditor(cmd *cobra.Command, t mapTarget, fn func(ed *editor.Editor) error) error {
	cfg, gormDB, err := connectFromConfig(t.configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := treestore.New(gormDB, logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ownerID := ownerOrDefault(cfg, t.owner)
	categoryID, err := findTree(ctx, gormDB, store, ownerID, t.category)
	if err != nil {
		return err
	}

	registry, err := editor.NewRegistry(editor.RegistryOpts{
		Store:       store,
		SaveTimeout: cfg.Sync.Timeout,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ed, err := registry.Get(ctx, ownerID, categoryID)
	if err != nil {
		return err
	}

	runErr := fn(ed)
	if err := registry.Close(ctx); err != nil {
		return errors.Join(runErr, err)
	}
	if _, lastErr := ed.SaveState(); lastErr != nil {
		return errors.Join(runErr, fmt.Errorf("save mind map: %w", lastErr))
	}
	return runErr
}

func newMapListCmd() *cobra.Command {
	var configPath, owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored mind maps, uncategorized ones included",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ownerID := ownerOrDefault(cfg, owner)
			store, err := treestore.New(gormDB, logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			entries, err := store.ListTrees(ctx, ownerID)
			if err != nil {
				return err
			}
			cats, err := category.List(gormDB, ownerID)
			if err != nil {
				return err
			}
			names := make(map[string]string, len(cats))
			for _, c := range cats {
				names[c.ID] = c.Name
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tCATEGORY\tTITLE\tNODES")
			for _, e := range entries {
				name := names[e.CategoryID]
				if e.CategoryID == treestore.Uncategorized {
					name = report.UncategorizedName
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", e.Key, name, e.Title, mindmap.Count(e.Root))
			}
			return w.Flush()
		},
	}

	addConfigFlags(cmd, &configPath, &owner)
	return cmd
}

func newMapShowCmd() *cobra.Command {
	var (
		t       mapTarget
		present bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the mind map as an outline",
		Long: `Prints the mind map with the node you are working on and its ancestors
highlighted. --present hides node IDs for a clean read-only view.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd, t, func(ed *editor.Editor) error {
				return runMapShow(cmd, ed, present, asJSON)
			})
		},
	}

	t.register(cmd)
	cmd.Flags().BoolVar(&present, "present", false, "presentation view without node IDs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	return cmd
}

func runMapShow(cmd *cobra.Command, ed *editor.Editor, present, asJSON bool) error {
	out := cmd.OutOrStdout()
	root := ed.Tree()
	hl := ed.Highlight()

	if asJSON {
		path := hl.Path(root)
		if path == nil {
			path = []string{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(mapJSON{
			Title: ed.Title(),
			Tree:  root,
			Highlight: highlightJSON{
				CurrentID: hl.CurrentID,
				PathIDs:   path,
			},
		})
	}

	opts := render.OutlineOpts{
		Descriptions: true,
		ShowIDs:      !present,
	}
	if f, ok := out.(*os.File); ok {
		opts.Color = render.DetectColor(f)
		if render.Width(f, 80) < 60 {
			opts.BarWidth = 10
		}
	}

	fmt.Fprintf(out, "%s\n\n", ed.Title())
	return render.Outline(out, render.Build(root, hl), opts)
}

func newMapNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Edit mind map nodes",
	}

	cmd.AddCommand(newNodeAddCmd())
	cmd.AddCommand(newNodeEditCmd("rename <node-id> <label>", "Change a node's label",
		func(ed *editor.Editor, id, v string) error { return ed.Rename(id, v) }))
	cmd.AddCommand(newNodeEditCmd("describe <node-id> <text>", "Change a node's description",
		func(ed *editor.Editor, id, v string) error { return ed.Describe(id, v) }))
	cmd.AddCommand(newNodeEditCmd("status <node-id> <pending|active|completed|abandoned>", "Change a node's status",
		func(ed *editor.Editor, id, v string) error { return ed.SetStatus(id, mindmap.Status(v)) }))
	cmd.AddCommand(newNodeEditCmd("icon <node-id> <icon>", "Set a node's icon (empty string clears it)",
		func(ed *editor.Editor, id, v string) error { return ed.SetIcon(id, mindmap.Icon(v)) }))
	cmd.AddCommand(newNodeEditCmd("progress <node-id> <0-100>", "Set the active node's progress",
		func(ed *editor.Editor, id, v string) error {
			p, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("progress %q is not a number", v)
			}
			return ed.SetProgress(id, p)
		}))
	cmd.AddCommand(newNodeDeleteCmd())
	return cmd
}

// requireNode fails when id is not in the editor's tree. Editor operations
// ignore unknown IDs, which is not useful feedback on the command line.
func requireNode(ed *editor.Editor, id string) error {
	if mindmap.Find(ed.Tree(), id) == nil {
		return fmt.Errorf("node %s not found", id)
	}
	return nil
}

func newNodeAddCmd() *cobra.Command {
	var (
		t    mapTarget
		kind string
	)

	cmd := &cobra.Command{
		Use:   "add <parent-id> [label]",
		Short: "Add a child node",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := ""
			if len(args) == 2 {
				label = args[1]
			}
			if kind != "" && (!mindmap.ValidKind(kind) || kind == string(mindmap.KindRoot)) {
				return fmt.Errorf("unknown node kind %q", kind)
			}
			return withEditor(cmd, t, func(ed *editor.Editor) error {
				if err := requireNode(ed, args[0]); err != nil {
					return err
				}
				child, err := ed.AddChild(args[0], label, mindmap.Kind(kind))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q under %s\n", child.ID, child.Label, args[0])
				return nil
			})
		},
	}

	t.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", "", "node kind: primary-target, primary or leaf (default: leaf)")
	return cmd
}

func newNodeEditCmd(use, short string, apply func(ed *editor.Editor, id, value string) error) *cobra.Command {
	var t mapTarget

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd, t, func(ed *editor.Editor) error {
				if err := requireNode(ed, args[0]); err != nil {
					return err
				}
				if err := apply(ed, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
				return nil
			})
		},
	}

	t.register(cmd)
	return cmd
}

func newNodeDeleteCmd() *cobra.Command {
	var t mapTarget

	cmd := &cobra.Command{
		Use:   "delete <node-id>",
		Short: "Delete a node and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd, t, func(ed *editor.Editor) error {
				if err := requireNode(ed, args[0]); err != nil {
					return err
				}
				if err := ed.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	t.register(cmd)
	return cmd
}
