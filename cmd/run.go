package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mensylisir/xmstack/menu"
	"github.com/mensylisir/xmstack/pipeline"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/section"
)

func newRunCommand(args *runtime.CliArgs) *cobra.Command {
	onFailure := string(pipeline.AbortOnFailure)

	cmd := &cobra.Command{
		Use:   "run [section...]",
		Short: "Run sections without prompting (all sections when none are named)",
		RunE: func(cmd *cobra.Command, names []string) error {
			op, err := pipeline.OperatorFor(onFailure)
			if err != nil {
				return err
			}
			s, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			defer s.close()

			all, err := s.sections()
			if err != nil {
				return err
			}
			sections, err := section.Select(all, names...)
			if err != nil {
				return err
			}
			name := "all sections"
			if len(names) > 0 {
				name = strings.Join(names, ", ")
			}
			res, err := pipeline.NewExecutor(s.rt, op).Run(cmd.Context(), s.log, name, sections...)
			if err != nil {
				return err
			}
			menu.RenderSummary(cmd.OutOrStdout(), res)
			if !res.Succeeded() {
				return fmt.Errorf("run %s: %w", res.Phase, res.CombinedError())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&onFailure, "on-failure", onFailure,
		fmt.Sprintf("what to do after a failed step (%s)", strings.Join(pipeline.PolicyNames(), "|")))
	return cmd
}
