package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/postcode/fieldsync"
	"github.com/sarchlab/postcode/terminal"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Edit the address and its fields in a terminal form.",
	Long: "`interactive` shows the address form and reads commands such as " +
		"`address 0xffff800012345000` or `l3 5`. Editing one side updates " +
		"the other.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, out, restore, err := terminal.Open(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		defer restore()

		c := fieldsync.NewController("Terminal")
		collect(c)

		return terminal.NewSession(c, out).Run(in)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
