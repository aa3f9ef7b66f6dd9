package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/simp-lee/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/simp-lee/membersearch/internal/app"
	"github.com/simp-lee/membersearch/internal/config"
	"github.com/simp-lee/membersearch/internal/domain"
	"github.com/simp-lee/membersearch/internal/query"
	"github.com/simp-lee/membersearch/internal/search"
	"github.com/simp-lee/membersearch/internal/seed"
)

type rootOptions struct {
	configPath string
	engine     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "memberctl",
		Short:         "Search and seed the member database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "path to configuration file")
	root.PersistentFlags().StringVar(&opts.engine, "engine", "", "query engine override (gorm or bun)")

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newSearchCmd(opts),
		newPageCmd(opts),
	)
	return root
}

// env is the opened configuration, logger and database for one command run.
type env struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
}

func openEnv(opts *rootOptions) (*env, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.engine != "" {
		cfg.Database.Engine = opts.engine
	}

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("setup database: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.log.Close()
}

func (e *env) searcher() (*search.Searcher, error) {
	exec, err := app.NewExecutor(e.db, &e.cfg.Database)
	if err != nil {
		return nil, err
	}
	return search.NewSearcher(exec, e.log.Logger), nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Team{}, &domain.Member{})
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the team and member tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			if err := migrate(e.db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML fixture into an empty member table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			path := file
			if path == "" {
				path = e.cfg.Database.SeedFile
			}
			if path == "" {
				return fmt.Errorf("no fixture file: pass --file or set database.seed_file")
			}

			if err := migrate(e.db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			res, err := seed.ApplyFile(commandContext(cmd), e.db, path)
			if err != nil {
				return err
			}
			e.log.Info("seed finished", slog.String("file", path), slog.Bool("skipped", res.Skipped))

			if res.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "members already present, nothing seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d teams and %d members\n", res.Teams, res.Members)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (defaults to database.seed_file)")
	return cmd
}

// conditionFlags binds the search filters. Age bounds are only applied when
// the flag was given, so 0 remains a usable bound.
type conditionFlags struct {
	username string
	teamName string
	ageGoe   int
	ageLoe   int
}

func (f *conditionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.username, "username", "", "exact username")
	cmd.Flags().StringVar(&f.teamName, "team", "", "exact team name")
	cmd.Flags().IntVar(&f.ageGoe, "age-goe", 0, "minimum age, inclusive")
	cmd.Flags().IntVar(&f.ageLoe, "age-loe", 0, "maximum age, inclusive")
}

func (f *conditionFlags) condition(cmd *cobra.Command) domain.SearchCondition {
	cond := domain.SearchCondition{Username: f.username, TeamName: f.teamName}
	if cmd.Flags().Changed("age-goe") {
		v := f.ageGoe
		cond.AgeGoe = &v
	}
	if cmd.Flags().Changed("age-loe") {
		v := f.ageLoe
		cond.AgeLoe = &v
	}
	return cond
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var filters conditionFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "List every member matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			s, err := e.searcher()
			if err != nil {
				return err
			}
			rows, err := s.Search(commandContext(cmd), filters.condition(cmd))
			if err != nil {
				return err
			}
			if rows == nil {
				rows = []domain.MemberTeam{}
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
	filters.bind(cmd)
	return cmd
}

func newPageCmd(opts *rootOptions) *cobra.Command {
	var (
		filters  conditionFlags
		page     int
		size     int
		sort     string
		strategy string
	)

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Show one page of members matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			if !cmd.Flags().Changed("size") {
				size = e.cfg.Search.DefaultPageSize
			}
			if !cmd.Flags().Changed("strategy") {
				strategy = e.cfg.Search.DefaultStrategy
			}
			st, err := search.ParseStrategy(strategy)
			if err != nil {
				return err
			}

			s, err := e.searcher()
			if err != nil {
				return err
			}
			req := domain.PageRequest{PageIndex: page, PageSize: size, Sort: sort}
			result, err := s.SearchPage(commandContext(cmd), filters.condition(cmd), req, st)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	filters.bind(cmd)
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")
	cmd.Flags().IntVar(&size, "size", 0, "page size (defaults to search.default_page_size)")
	cmd.Flags().StringVar(&sort, "sort", "", sortUsage())
	cmd.Flags().StringVar(&strategy, "strategy", "", "paging strategy: simple or complex")
	return cmd
}

// sortUsage lists the accepted sort keys in the --sort help text.
func sortUsage() string {
	return fmt.Sprintf("sort as field:asc|desc, field one of %s", strings.Join(query.SortFields(), ", "))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
