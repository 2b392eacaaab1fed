package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"poassistant/internal/gateway/app"
	"poassistant/internal/gateway/export"
	"poassistant/internal/gateway/reconcile"
	"poassistant/internal/types"
)

var (
	nameColor  = color.New(color.FgCyan, color.Bold)
	faintColor = color.New(color.Faint)
	okColor    = color.New(color.FgGreen)
)

func newProjectsCmd(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage saved projects",
		Long:  "List, inspect, delete and export saved projects",
	}
	cmd.AddCommand(
		newProjectsListCmd(r),
		newProjectsShowCmd(r),
		newProjectsDeleteCmd(r),
		newProjectsExportCmd(r),
	)
	return cmd
}

func newProjectsListCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := r.projects(cmd.Context())
			if err != nil {
				return err
			}
			projects := store.List()
			if len(projects) == 0 {
				fmt.Fprintln(r.out, "No saved projects.")
				return nil
			}
			for _, p := range projects {
				nameColor.Fprint(r.out, p.Name)
				fmt.Fprintf(r.out, "  %s  ", p.ID)
				faintColor.Fprintf(r.out, "saved %s, %d stories\n", humanize.Time(p.CreatedAt), types.StoryCount(p.JiraStories))
			}
			return nil
		},
	}
}

func newProjectsShowCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a project's requirements and stories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := r.projects(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := store.Get(strings.TrimSpace(args[0]))
			if !ok {
				return fmt.Errorf("project %q not found", args[0])
			}
			nameColor.Fprintln(r.out, p.Name)
			faintColor.Fprintf(r.out, "%s, saved %s\n\n", p.ID, humanize.Time(p.CreatedAt))
			fmt.Fprintf(r.out, "Requirements:\n%s\n\n", p.UserInput)
			fmt.Fprintf(r.out, "Prototype: %s of markup\n\n", humanize.Bytes(uint64(len(p.UICode))))
			printEpics(r, p.JiraStories)
			return nil
		},
	}
}

func newProjectsDeleteCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := r.projects(cmd.Context())
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			p, ok := store.Get(id)
			if !ok {
				return fmt.Errorf("project %q not found", id)
			}
			if err := reconcile.New(store, reconcile.WithLogger(r.log)).Delete(cmd.Context(), nil, id); err != nil {
				return err
			}
			okColor.Fprintf(r.out, "Deleted %q\n", p.Name)
			return nil
		},
	}
}

func newProjectsExportCmd(r *runtime) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a project's stories or prototype snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := export.ParseFormat(format)
			if !ok {
				return fmt.Errorf("unknown format %q (want csv, xlsx, html, md or png)", format)
			}
			store, err := r.projects(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := store.Get(strings.TrimSpace(args[0]))
			if !ok {
				return fmt.Errorf("project %q not found", args[0])
			}
			exporter, err := app.NewExporter(r.cfg)
			if err != nil {
				return err
			}
			stories := p.JiraStories
			if stories == nil {
				stories = []types.Epic{}
			}
			file, err := exporter.Render(cmd.Context(), f, export.Source{UICode: &p.UICode, Stories: stories})
			if err != nil {
				return err
			}
			if out == "" {
				out = file.Name
			}
			if err := os.WriteFile(out, file.Content, 0o644); err != nil {
				return err
			}
			okColor.Fprintf(r.out, "Wrote %s (%s)\n", out, humanize.Bytes(uint64(len(file.Content))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv, xlsx, html, md or png")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: the export's own file name)")
	return cmd
}

func printEpics(r *runtime, epics []types.Epic) {
	if len(epics) == 0 {
		fmt.Fprintln(r.out, "No stories.")
		return
	}
	for _, epic := range epics {
		nameColor.Fprintf(r.out, "%s\n", epic.EpicTitle)
		for _, story := range epic.Stories {
			fmt.Fprintf(r.out, "  - %s\n", story.Title)
			faintColor.Fprintf(r.out, "    %s\n", story.UserStory)
		}
	}
}
