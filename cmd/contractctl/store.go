package main

import (
	"fmt"

	"github.com/spf13/cobra"

	ck "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/store"
)

func (a *app) newSaveCmd() *cobra.Command {
	var latest bool
	cmd := &cobra.Command{
		Use:   "save FILE [LOCATION]",
		Short: "Validate a document and put it in the configured store",
		Long: `Validate a document and put it in the configured store.

Without LOCATION a new unique location is generated and printed. The stored
format follows the location's extension.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := readContract(ctx, args[0], a.parseOpt(cmd))
			if err != nil {
				fmt.Fprintf(a.out, "FAIL %s\n", args[0])
				printIssues(a.out, err)
				return errReported
			}
			if latest {
				if c, err = ck.Migrate(ctx, c); err != nil {
					return err
				}
			}
			loc := store.NewLocation(ck.FormatFromPath(args[0]))
			if len(args) == 2 {
				loc = args[1]
			}
			repo, closeFn, err := a.repository(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := repo.Save(ctx, loc, c); err != nil {
				return err
			}
			fmt.Fprintln(a.out, loc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "migrate to the latest version before saving")
	return cmd
}

func (a *app) newLoadCmd() *cobra.Command {
	var latest bool
	var formatName string
	cmd := &cobra.Command{
		Use:   "load LOCATION",
		Short: "Print a stored contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, closeFn, err := a.repository(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			var c ck.Contract
			if latest {
				c, err = repo.LoadLatest(ctx, args[0])
			} else {
				c, err = repo.Load(ctx, args[0])
			}
			if err != nil {
				return err
			}
			format := ck.FormatFromPath(args[0])
			if formatName != "" {
				f, ok := ck.ParseFormat(formatName)
				if !ok {
					return fmt.Errorf("unknown format %q (use json or yaml)", formatName)
				}
				format = f
			}
			b, err := ck.Encode(c, format)
			if err != nil {
				return err
			}
			_, err = a.out.Write(b)
			return err
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "migrate to the latest version (the stored document is unchanged)")
	cmd.Flags().StringVarP(&formatName, "output", "o", "", "output format: json or yaml (default: the location's format)")
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	var upgrade bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored contracts",
		Long: `List stored contracts with their versions.

--upgrade migrates every stored contract that is not at the latest version
and writes it back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, closeFn, err := a.repository(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			locs, err := repo.Documents().List(ctx)
			if err != nil {
				return err
			}
			failed := 0
			for _, loc := range locs {
				if upgrade {
					out, changed, err := repo.MigrateInPlace(ctx, loc)
					switch {
					case err != nil:
						failed++
						fmt.Fprintf(a.out, "%s\tERROR %v\n", loc, err)
					case changed:
						fmt.Fprintf(a.out, "%s\t%s (upgraded)\n", loc, out.SchemaVersion())
					default:
						fmt.Fprintf(a.out, "%s\t%s\n", loc, out.SchemaVersion())
					}
					continue
				}
				c, err := repo.Load(ctx, loc)
				if err != nil {
					failed++
					fmt.Fprintf(a.out, "%s\tINVALID\n", loc)
					continue
				}
				fmt.Fprintf(a.out, "%s\t%s\n", loc, c.SchemaVersion())
			}
			if failed > 0 {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&upgrade, "upgrade", false, "migrate outdated contracts in place")
	return cmd
}
