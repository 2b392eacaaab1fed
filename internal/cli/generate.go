package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"poassistant/internal/gateway/app"
	"poassistant/internal/gateway/orchestrator"
	"poassistant/internal/gateway/reconcile"
	"poassistant/internal/gateway/session"
	"poassistant/internal/types"
)

var errColor = color.New(color.FgRed)

func newGenerateCmd(r *runtime) *cobra.Command {
	var input, imagePath, save, markupOut string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a prototype and user stories from requirements",
		Long:  "Run one generation in a local session, print a summary, and optionally save it as a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess := session.New("cli")
			var img *session.Image
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return err
				}
				img = session.NewImage(data, http.DetectContentType(data))
			}
			sess.Update(func(st *session.State) {
				st.UserInput = input
				st.Image = img
			})

			gateway, err := app.NewGateway(ctx, r.cfg, r.log)
			if err != nil {
				return err
			}
			defer gateway.Close()

			if !orchestrator.New(gateway, r.log, nil).Generate(ctx, sess) {
				return fmt.Errorf("nothing to generate from: pass --input or --image")
			}
			st := sess.Snapshot()
			if st.UICode != nil {
				fmt.Fprintf(r.out, "Prototype: %s of markup\n", humanize.Bytes(uint64(len(*st.UICode))))
				if markupOut != "" {
					if err := os.WriteFile(markupOut, []byte(*st.UICode), 0o644); err != nil {
						return err
					}
				}
			}
			if st.JiraStories != nil {
				fmt.Fprintf(r.out, "Stories: %d in %d epics\n", types.StoryCount(st.JiraStories), len(st.JiraStories))
				printEpics(r, st.JiraStories)
			}
			if st.Error != "" {
				errColor.Fprintln(r.out, st.Error)
				if !st.HasArtifacts() {
					return fmt.Errorf("generation failed: %s", st.Error)
				}
			}

			if strings.TrimSpace(save) == "" {
				return nil
			}
			return saveSession(r, cmd, sess, save)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "requirements text")
	cmd.Flags().StringVar(&imagePath, "image", "", "reference image file")
	cmd.Flags().StringVar(&save, "save", "", "save the result as a project with this name")
	cmd.Flags().StringVar(&markupOut, "markup-out", "", "write the prototype markup to this file")
	return cmd
}

func saveSession(r *runtime, cmd *cobra.Command, sess *session.Session, name string) error {
	store, err := r.projects(cmd.Context())
	if err != nil {
		return err
	}
	engine := reconcile.New(store, reconcile.WithLogger(r.log))
	res, err := engine.Commit(cmd.Context(), sess)
	if err != nil {
		return err
	}
	switch res.Outcome {
	case reconcile.OutcomeRefused:
		return fmt.Errorf("cannot save: prototype or stories are missing")
	case reconcile.OutcomeNeedsName:
		p, ok, err := engine.CreateNamed(cmd.Context(), sess, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("cannot save: project name is blank")
		}
		okColor.Fprintf(r.out, "Saved %q as %s\n", p.Name, p.ID)
	default:
		okColor.Fprintf(r.out, "Project %s\n", res.Outcome)
	}
	return nil
}
