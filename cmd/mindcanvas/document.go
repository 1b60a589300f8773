package main

import (
	"fmt"
	"os"
	"path/filepath"

	"mindcanvas/application/commands"
	cmdhandlers "mindcanvas/application/commands/handlers"
	"mindcanvas/application/queries"
	"mindcanvas/infrastructure/di"
	"mindcanvas/pkg/utils"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored mind map as a tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), false, func(c *di.Container) error {
				result, err := c.QueryBus.Ask(cmd.Context(), queries.GetDocumentQuery{})
				if err != nil {
					return err
				}
				doc := result.(queries.DocumentResult)
				out := cmd.OutOrStdout()
				brand.Fprintf(out, "%s", c.Gateway.Key())
				if stored, err := c.Gateway.Document(cmd.Context()); err == nil && stored != nil {
					if saved, err := utils.ParseRFC3339(stored.UpdatedAt); err == nil {
						subtle.Fprintf(out, "  saved %s", saved.Local().Format("2006-01-02 15:04"))
					}
				}
				subtle.Fprintf(out, "  %d nodes, %d connections\n\n", len(doc.Nodes), len(doc.Edges))
				renderTree(cmd.OutOrStdout(), doc.Nodes)
				return nil
			})
		},
	}
}

func searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search node titles and descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), false, func(c *di.Container) error {
				result, err := c.QueryBus.Ask(cmd.Context(), queries.SearchQuery{Query: args[0], Limit: limit})
				if err != nil {
					return err
				}
				hits := result.([]queries.SearchHit)
				if len(hits) == 0 {
					subtle.Fprintf(cmd.OutOrStdout(), "no nodes match %q\n", args[0])
					return nil
				}
				for _, h := range hits {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n",
						brand.Sprintf("%5.1f", h.Score),
						h.Title,
						subtle.Sprintf("#%s %s: %s", h.NodeID, h.MatchType, h.MatchText),
					)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results, 0 for all")
	return cmd
}

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored mind map to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), false, func(c *di.Container) error {
				result, err := c.QueryBus.Ask(cmd.Context(), queries.ExportDocumentQuery{})
				if err != nil {
					return err
				}
				export := result.(queries.ExportResult)
				if output == "-" {
					_, err := cmd.OutOrStdout().Write(export.Data)
					return err
				}
				path := output
				if path == "" {
					path = export.Filename
				} else if info, err := os.Stat(path); err == nil && info.IsDir() {
					path = filepath.Join(path, export.Filename)
				}
				if err := os.WriteFile(path, export.Data, 0o644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				good.Fprintf(cmd.OutOrStdout(), "exported to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file or directory to write, - for stdout")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored mind map with a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return withContainer(cmd.Context(), true, func(c *di.Container) error {
				result, err := c.CommandBus.Send(cmd.Context(), commands.ImportDocumentCommand{Data: data})
				if err != nil {
					return err
				}
				good.Fprintf(cmd.OutOrStdout(), "imported %d nodes into %s\n", result.(cmdhandlers.ImportResult).Nodes, c.Gateway.Key())
				return nil
			})
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored mind map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), false, func(c *di.Container) error {
				if _, err := c.CommandBus.Send(cmd.Context(), commands.ClearStorageCommand{}); err != nil {
					return err
				}
				good.Fprintf(cmd.OutOrStdout(), "cleared %s\n", c.Gateway.Key())
				return nil
			})
		},
	}
}
