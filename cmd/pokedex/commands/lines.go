package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func linesCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lines <species>",
		Short: "Print every evolution line of a species, one per row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := s.app.Catalog.EvolutionLines(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(line, " → "))
			}
			return nil
		},
	}
	return cmd
}
