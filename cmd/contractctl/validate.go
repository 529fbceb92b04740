package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	ck "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/internal/log"
)

type validateResult struct {
	path     string
	contract ck.Contract
	err      error
}

func (a *app) newValidateCmd() *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate contract documents against their declared version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := validateFiles(cmd.Context(), args, a.parseOpt(cmd), jobs)
			if n := a.reportResults(results); n > 0 {
				fmt.Fprintf(a.errOut, "%d of %d documents invalid\n", n, len(results))
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().Bool("fail-fast", false, "report only the first issue per document")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "documents validated in parallel")
	return cmd
}

// validateFiles parses paths concurrently. Results keep the order of paths.
func validateFiles(ctx context.Context, paths []string, opt ck.ParseOpt, jobs int) []validateResult {
	results := make([]validateResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, p := range paths {
		g.Go(func() error {
			c, err := readContract(ctx, p, opt)
			results[i] = validateResult{path: p, contract: c, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// reportResults prints one line per document and returns the failure count.
func (a *app) reportResults(results []validateResult) int {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(a.out, "FAIL %s\n", r.path)
			printIssues(a.out, r.err)
			log.Debug(log.CatCLI, "document invalid", "path", r.path, "error", r.err)
			continue
		}
		fmt.Fprintf(a.out, "OK   %s (%s)\n", r.path, r.contract.SchemaVersion())
	}
	return failed
}

// readContract reads and parses the document at path. The format follows
// the file extension.
func readContract(ctx context.Context, path string, opt ck.ParseOpt) (ck.Contract, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied document path
	if err != nil {
		return nil, err
	}
	return ck.ParseFrom(ctx, ck.Bytes(b, ck.FormatFromPath(path)), opt)
}
