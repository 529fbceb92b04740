package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ck "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/i18n"
	"github.com/reoring/contractkit/internal/config"
	"github.com/reoring/contractkit/internal/log"
	"github.com/reoring/contractkit/internal/tracing"
	"github.com/reoring/contractkit/store"
	"github.com/reoring/contractkit/store/filestore"
	"github.com/reoring/contractkit/store/pgstore"
	"github.com/reoring/contractkit/store/sqlitestore"
)

// errReported marks failures whose details were already printed.
var errReported = errors.New("failed")

// app is the state shared by all subcommands for one invocation.
type app struct {
	out, errOut io.Writer

	cfgFile string
	debug   bool
	lang    string

	cfg      config.Config
	tracer   *tracing.Provider
	cleanups []func()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "contractctl",
		Short:         "Validate, migrate and store versioned data contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: "+config.DefaultPath+" when present)")
	pf.BoolVar(&a.debug, "debug", false, "write debug logs to stderr")
	pf.StringVar(&a.lang, "lang", "", "language for issue messages (BCP 47, e.g. en, ja)")

	root.AddCommand(
		a.newValidateCmd(),
		a.newMigrateCmd(),
		a.newSchemaCmd(),
		a.newVersionsCmd(),
		a.newSaveCmd(),
		a.newLoadCmd(),
		a.newListCmd(),
		a.newWatchCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(viper.New(), a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	switch {
	case a.debug:
		log.SetOutput(a.errOut)
		a.cleanups = append(a.cleanups, func() { log.SetOutput(nil) })
	case cfg.Log.Enabled:
		closeLog, err := log.Init(cfg.Log.Path)
		if err != nil {
			return err
		}
		lvl, _ := log.ParseLevel(cfg.Log.Level)
		log.SetMinLevel(lvl)
		a.cleanups = append(a.cleanups, func() { log.SetOutput(nil); closeLog() })
	}

	lang := cfg.Lang
	if a.lang != "" {
		lang = a.lang
	}
	i18n.SetLanguage(lang)

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	a.tracer = tp
	log.Debug(log.CatCLI, "command start", "cmd", cmd.CommandPath(), "tracing", tp.Enabled())
	return nil
}

// close flushes traces and releases everything init set up. It runs after
// every invocation, including failed ones.
func (a *app) close() error {
	var err error
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = a.tracer.Shutdown(ctx)
		cancel()
		a.tracer = nil
	}
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
	return err
}

func (a *app) parseOpt(cmd *cobra.Command) ck.ParseOpt {
	opt := a.cfg.ParseOpt()
	if f := cmd.Flags().Lookup("fail-fast"); f != nil && f.Changed {
		opt.FailFast, _ = cmd.Flags().GetBool("fail-fast")
	}
	return opt
}

// openStore opens the configured backend, wrapped in a read cache when
// store.cache_ttl is positive. The returned func releases it.
func (a *app) openStore(ctx context.Context) (store.DocumentStore, func(), error) {
	var docs store.DocumentStore
	closeFn := func() {}
	switch a.cfg.Store.Backend {
	case config.BackendSQLite:
		s, err := sqlitestore.Open(ctx, a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		docs, closeFn = s, func() { _ = s.Close() }
	case config.BackendPostgres:
		s, err := pgstore.Open(ctx, a.cfg.Store.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		docs, closeFn = s, s.Close
	default:
		s, err := filestore.New(a.cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		docs = s
	}
	if a.cfg.Store.CacheTTL > 0 {
		docs = store.NewCached(docs, a.cfg.Store.CacheTTL)
	}
	return docs, closeFn, nil
}

func (a *app) repository(ctx context.Context, cmd *cobra.Command) (*store.Repository, func(), error) {
	docs, closeFn, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store.NewRepository(docs, store.WithParseOpt(a.parseOpt(cmd))), closeFn, nil
}

// printIssues writes one line per issue, indented under a header.
func printIssues(w io.Writer, err error) {
	if iss, ok := ck.AsIssues(err); ok {
		for _, it := range iss {
			fmt.Fprintf(w, "  %s: %s: %s\n", it.Path, it.Code, it.Message)
		}
		return
	}
	fmt.Fprintf(w, "  %v\n", err)
}
