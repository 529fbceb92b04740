package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/reoring/contractkit/internal/log"
	"github.com/reoring/contractkit/internal/watch"
)

func (a *app) newWatchCmd() *cobra.Command {
	cfg := watch.DefaultConfig("")
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Revalidate contract documents in DIR whenever they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg.Dir = args[0]
			w, err := watch.New(cfg)
			if err != nil {
				return err
			}
			changes, err := w.Start()
			if err != nil {
				_ = w.Stop()
				return err
			}
			defer func() { _ = w.Stop() }()

			opt := a.parseOpt(cmd)
			fmt.Fprintf(a.errOut, "watching %s (Ctrl-C to stop)\n", cfg.Dir)
			for {
				select {
				case <-ctx.Done():
					return nil
				case paths := <-changes:
					log.Debug(log.CatWatch, "documents changed", "count", len(paths))
					a.reportResults(validateFiles(ctx, paths, opt, 0))
				}
			}
		},
	}
	cmd.Flags().DurationVar(&cfg.DebounceDur, "debounce", cfg.DebounceDur, "quiet period before revalidating")
	cmd.Flags().Bool("fail-fast", false, "report only the first issue per document")
	return cmd
}
