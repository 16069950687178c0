package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ifconf/pkg/cli"
)

var fragmentsCmd = &cobra.Command{
	Use:   "fragments",
	Short: "List and show configuration fragments",
	Long: `List and show configuration fragments.

Built-in fragments cover interface addressing, loopbacks and the
interfaces read filter. Files in the config's fragments_dir (one *.xml per
fragment, named after the file) override built-ins of the same name.`,
}

var fragmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fragments",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := cli.NewTable("NAME", "OPERATION", "VARIABLES", "DESCRIPTION")
		for _, name := range app.library.Names() {
			f, err := app.library.Get(name)
			if err != nil {
				return err
			}
			op := string(f.Operation)
			if f.Root == "filter" {
				op = "filter"
			}
			t.Row(f.Name, dash(op), dash(strings.Join(f.Variables, ", ")), f.Description)
		}
		t.Flush()
		return nil
	},
}

var fragmentsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a fragment body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := app.library.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Fragment: %s\n", bold(f.Name))
		if f.Description != "" {
			fmt.Printf("Description: %s\n", f.Description)
		}
		if len(f.Variables) > 0 {
			fmt.Printf("Variables: %s\n", strings.Join(f.Variables, ", "))
		}
		fmt.Println()
		fmt.Println(f.Body)
		return nil
	},
}

func init() {
	fragmentsCmd.AddCommand(fragmentsListCmd)
	fragmentsCmd.AddCommand(fragmentsShowCmd)
}
