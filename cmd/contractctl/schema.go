package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	ck "github.com/reoring/contractkit"
	js "github.com/reoring/contractkit/jsonschema"
)

func (a *app) newSchemaCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "schema [VERSION]",
		Short: "Print the JSON Schema of a contract version (default: latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg := ck.DefaultRegistry()
			if all && len(args) > 0 {
				return fmt.Errorf("--all takes no VERSION")
			}
			var s *js.Schema
			if all {
				s = reg.UnionSchema()
			} else {
				v := reg.Latest()
				if len(args) == 1 {
					v = ck.Version(args[0])
				}
				var err error
				if s, err = reg.JSONSchema(v); err != nil {
					return err
				}
			}
			b, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "%s\n", b)
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print one schema accepting any known version (oneOf)")
	return cmd
}

func (a *app) newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List known contract versions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			reg := ck.DefaultRegistry()
			for _, v := range reg.Versions() {
				policy, _ := reg.UnknownPolicy(v)
				line := fmt.Sprintf("%s\tunknown keys: %s", v, policy)
				if v == reg.Latest() {
					line += "\t(latest)"
				}
				fmt.Fprintln(a.out, line)
			}
			return nil
		},
	}
}
