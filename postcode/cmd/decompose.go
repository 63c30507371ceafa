package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/postcode/fieldsync"
	"github.com/sarchlab/postcode/vaddr"
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose <address>",
	Short: "Split a virtual address into VA range, indices and page offset.",
	Long: "`decompose 0xffff800012345000` prints the VA range, the L3 to L0 " +
		"page-table indices and the page offset of the address. " +
		"The 0x prefix is optional.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := fieldsync.NewController("CLI")
		collect(c)

		result := c.OnAddressEdited(args[0])
		if !result.AddressValid {
			_, err := decomposeError(args[0])
			return err
		}

		d := *result.Decomposed
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "address   %s\n",
			vaddr.FormatAddress(vaddr.Compose(d)))
		fmt.Fprintf(out, "va_range  %s\n", d.VARange)
		fmt.Fprintf(out, "l3        %d\n", d.L3)
		fmt.Fprintf(out, "l2        %d\n", d.L2)
		fmt.Fprintf(out, "l1        %d\n", d.L1)
		fmt.Fprintf(out, "l0        %d\n", d.L0)
		fmt.Fprintf(out, "offset    %d\n", d.Offset)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(decomposeCmd)
}

// decomposeError repeats the parsing to explain why the controller rejected
// the text.
func decomposeError(text string) (vaddr.DecomposedAddress, error) {
	address, err := vaddr.ParseAddress(text)
	if err != nil {
		return vaddr.DecomposedAddress{}, err
	}

	return vaddr.Decompose(address)
}
