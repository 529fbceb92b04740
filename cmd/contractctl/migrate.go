package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	ck "github.com/reoring/contractkit"
)

func (a *app) newMigrateCmd() *cobra.Command {
	var write, showDiff, plan bool
	cmd := &cobra.Command{
		Use:   "migrate FILE",
		Short: "Upgrade a contract document to the latest version",
		Long: `Upgrade a contract document to the latest version.

By default the migrated document is printed. --write replaces the file,
--diff prints a line diff instead, and --plan only lists the upgrade steps.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctx := cmd.Context()
			orig, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied document path
			if err != nil {
				return err
			}
			format := ck.FormatFromPath(path)
			c, err := ck.ParseFrom(ctx, ck.Bytes(orig, format), a.parseOpt(cmd))
			if err != nil {
				fmt.Fprintf(a.out, "FAIL %s\n", path)
				printIssues(a.out, err)
				return errReported
			}

			m := ck.DefaultMigrator()
			if plan {
				steps, err := m.Plan(c.SchemaVersion())
				if err != nil {
					return err
				}
				if len(steps) == 0 {
					fmt.Fprintf(a.out, "%s: already at latest version %s\n", path, c.SchemaVersion())
					return nil
				}
				for _, s := range steps {
					fmt.Fprintf(a.out, "%s -> %s\n", s.From, s.To)
				}
				return nil
			}

			out, err := m.Migrate(ctx, c)
			if err != nil {
				return err
			}
			b, err := ck.Encode(out, format)
			if err != nil {
				return err
			}
			switch {
			case showDiff:
				fmt.Fprint(a.out, lineDiff(path, string(orig), string(b)))
			case write:
				if out == c {
					fmt.Fprintf(a.out, "%s: already at latest version %s\n", path, c.SchemaVersion())
					return nil
				}
				if err := writeFileKeepMode(path, b); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s: migrated %s -> %s\n", path, c.SchemaVersion(), out.SchemaVersion())
			default:
				_, err = a.out.Write(b)
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the migrated document back to FILE")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "print a line diff between FILE and its migrated form")
	cmd.Flags().BoolVar(&plan, "plan", false, "list the upgrade steps without applying them")
	cmd.Flags().Bool("fail-fast", false, "report only the first issue")
	cmd.MarkFlagsMutuallyExclusive("write", "diff", "plan")
	return cmd
}

func writeFileKeepMode(path string, b []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	return os.WriteFile(path, b, mode)
}

// lineDiff renders a whole-file diff of a and b with -, + and space
// prefixes. It is empty when the two are equal.
func lineDiff(name, a, b string) string {
	if a == b {
		return ""
	}
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s (migrated)\n", name, name)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}
