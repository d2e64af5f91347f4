package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pokedex/internal/loader"
	"pokedex/internal/tui"
)

func browseCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := loader.New(s.app.Catalog, loader.Options{
				Debounce: s.cfg.SearchDebounce,
				Logger:   s.logger.Named("loader"),
			})
			defer l.Close()
			l.Start()

			p := tea.NewProgram(tui.New(l, s.app.Catalog), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
	return cmd
}
