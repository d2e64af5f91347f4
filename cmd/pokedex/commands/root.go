package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pokedex/internal/app"
	"pokedex/internal/config"
	"pokedex/internal/logging"
)

// session is what every subcommand runs against. It is filled in by the
// root command's PersistentPreRunE.
type session struct {
	baseURL  string
	pageSize int
	logLevel string
	logFile  string
	noDB     bool

	cfg     config.Config
	logger  *zap.Logger
	app     *app.App
	cleanup []func()
}

func (s *session) close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
}

func Execute() error {
	root, s := newRootCmd()
	defer s.close()
	return root.ExecuteContext(context.Background())
}

func newRootCmd() (*cobra.Command, *session) {
	s := &session{}

	root := &cobra.Command{
		Use:          "pokedex",
		Short:        "Browse the Pokémon catalog from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnvFiles()
			s.cfg = config.Load()
			if s.baseURL != "" {
				s.cfg.PokeAPIBaseURL = s.baseURL
			}
			if s.pageSize > 0 {
				s.cfg.PageSize = s.pageSize
			}
			if s.logLevel != "" {
				s.cfg.LogLevel = s.logLevel
			}
			if s.noDB {
				s.cfg.DatabaseDSN = ""
			}

			// The TUI owns the terminal, so it logs to a file.
			if cmd.Name() == "browse" {
				if s.logFile == "" {
					s.logFile = defaultLogFile()
				}
				logger, closeLog, err := logging.NewFile(s.logFile, s.cfg.LogLevel)
				if err != nil {
					return err
				}
				s.logger = logger
				s.cleanup = append(s.cleanup, closeLog)
			} else {
				logger, err := logging.New(s.cfg.IsProduction(), s.cfg.LogLevel)
				if err != nil {
					return err
				}
				s.logger = logger
				s.cleanup = append(s.cleanup, func() { _ = logger.Sync() })
			}

			a, err := app.New(cmd.Context(), s.cfg, s.logger)
			if err != nil {
				s.close()
				return err
			}
			s.app = a
			s.cleanup = append(s.cleanup, a.Close)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			s.close()
		},
	}

	root.PersistentFlags().StringVar(&s.baseURL, "base-url", "", "PokeAPI base URL (default $POKEAPI_BASE_URL)")
	root.PersistentFlags().IntVar(&s.pageSize, "page-size", 0, "entries per page (default $PAGE_SIZE)")
	root.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "log level (default $LOG_LEVEL)")
	root.PersistentFlags().StringVar(&s.logFile, "log-file", "", "log file used by browse (default in the user cache dir)")
	root.PersistentFlags().BoolVar(&s.noDB, "no-db", false, "ignore DB_DSN and use the in-memory cache")

	root.AddCommand(browseCmd(s), showCmd(s), linesCmd(s), warmCmd(s))
	return root, s
}

func defaultLogFile() string {
	if dir, err := os.UserCacheDir(); err == nil {
		dir = filepath.Join(dir, "pokedex")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, "pokedex.log")
		}
	}
	return "pokedex.log"
}
