package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pokedex/internal/ingest"
)

func warmCmd(s *session) *cobra.Command {
	var (
		pages   int
		details bool
	)
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Prefetch catalog pages into the response cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}
			var repo ingest.Repository
			if s.app.DB != nil {
				repo = ingest.NewPostgresRepo(s.app.DB)
			}
			svc := ingest.NewService(s.app.Catalog, repo, ingest.Config{
				Pages:       pages,
				Details:     details,
				Concurrency: s.cfg.DetailConcurrency,
			}, s.logger.Named("warm"))
			if s.app.Cache != nil {
				svc.SetCache(s.app.Cache)
			}

			run, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "warmed %d pages, %d entries, %d details (%d failed)\n",
				run.PagesFetched, run.EntriesFetched, run.DetailsFetched, run.DetailsFailed)
			if s.app.Cache != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "cache: pruned %d expired, %d rows stored\n", run.CachePruned, run.CacheRows)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&pages, "pages", "n", 3, "number of pages to fetch")
	cmd.Flags().BoolVar(&details, "details", false, "also fetch detail and evolution data for every entry")
	return cmd
}
