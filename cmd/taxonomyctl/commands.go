// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cohesion-education/api/internal/apiclient"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/internal/transfer"
	"github.com/cohesion-education/api/internal/version"
)

const defaultAPIURL = "http://localhost:8080"

type rootOptions struct {
	apiURL  string
	token   string
	timeout time.Duration
}

func (o *rootOptions) client() *apiclient.Client {
	return apiclient.New(o.apiURL, apiclient.WithToken(o.token), apiclient.WithTimeout(o.timeout))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "taxonomyctl",
		Short:         "Inspect and edit the curriculum taxonomy",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", envOr("COHESION_API_URL", defaultAPIURL), "server base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("COHESION_API_TOKEN"), "API bearer token for writes")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		newFlattenCmd(opts),
		newTreeCmd(opts),
		newChildrenCmd(opts),
		newAddCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
	)
	return root
}

func newFlattenCmd(opts *rootOptions) *cobra.Command {
	var (
		selected int64
		local    bool
	)
	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Print every leaf category as a labeled option",
		Long: `Print the flattened taxonomy, one "ID<TAB>Label" line per leaf.

With --local the tree is walked from this machine through the children
endpoint instead of asking the server to flatten it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var (
				options  []taxonomy.Option
				failures []string
			)
			if local {
				res, err := taxonomy.NewFlattener(opts.client()).FlattenAll(ctx, selected)
				if err != nil {
					return err
				}
				options = res.Options
				for _, f := range res.Failures {
					failures = append(failures, fmt.Sprintf("%s: %v", f.Label, f.Err))
				}
			} else {
				res, err := opts.client().Flatten(ctx, selected)
				if err != nil {
					return err
				}
				options = res.Options
				for _, f := range res.Failures {
					failures = append(failures, fmt.Sprintf("%s: %s", f.Label, f.Error))
				}
			}

			printOptions(cmd.OutOrStdout(), options)
			for _, f := range failures {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning: incomplete subtree", f)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&selected, "selected", 0, "mark this taxonomy ID as selected")
	cmd.Flags().BoolVar(&local, "local", false, "flatten client-side")
	return cmd
}

func printOptions(w io.Writer, options []taxonomy.Option) {
	for _, o := range options {
		mark := ""
		if o.Selected {
			mark = " *"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s%s\n", o.Value, o.Label, mark)
	}
}

func newTreeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the taxonomy as an indented tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree, err := opts.client().Tree(cmd.Context())
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), tree, 0)
			return nil
		},
	}
}

func printTree(w io.Writer, nodes []*taxonomy.TreeNode, depth int) {
	for _, n := range nodes {
		_, _ = fmt.Fprintf(w, "%s%s (%d)\n", strings.Repeat("  ", depth), n.Name, n.ID)
		printTree(w, n.Children, depth+1)
	}
}

func newChildrenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "children ID",
		Short: "List the direct children of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			children, err := opts.client().Children(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(children) == 0 {
				_, _ = fmt.Fprintln(out, "(leaf)")
				return nil
			}
			for _, c := range children {
				_, _ = fmt.Fprintf(out, "%d\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		name   string
		parent int64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			id, err := opts.client().Create(ctx, model.CreateTaxonomyRequest{Name: name, ParentID: parent})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "category name")
	cmd.Flags().Int64Var(&parent, "parent", 0, "parent taxonomy ID (0 for a grade)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid taxonomy ID %q", s)
	}
	return id, nil
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the taxonomy as a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			return transfer.NewExporter(opts.client(), opts.apiURL).ExportToWriter(cmd.Context(), w)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create the categories of an exported document that are missing",
		Long: `Merge an export document into the server. Categories are matched by
name under their parent, so existing ones are reused and only missing ones
are created. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			importer := transfer.NewImporter(opts.client(), nil)
			result, err := importer.ImportFromReader(cmd.Context(), r, transfer.ImportOptions{DryRun: dryRun})
			if result != nil {
				printImportResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result)
			}
			if err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("%d categories failed to import", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be created without writing")
	return cmd
}

func printImportResult(out, errOut io.Writer, r *transfer.ImportResult) {
	verb := "created"
	if r.DryRun {
		verb = "would create"
	}
	_, _ = fmt.Fprintf(out, "%s %d, existing %d\n", verb, r.Created, r.Existing)
	for _, e := range r.Errors {
		_, _ = fmt.Fprintln(errOut, "error:", e)
	}
}
