package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/postcode/fieldsync"
	"github.com/sarchlab/postcode/vaddr"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Build a virtual address from VA range, indices and page offset.",
	Long: "`compose --va-range top --l3 256 --l1 145 --l0 325` prints " +
		"the address in hexadecimal. Fields that are not given are 0.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		texts := fieldsync.FieldTexts{}
		for _, id := range fieldsync.DecomposedFields() {
			text, _ := flags.GetString(flagName(id))
			texts.Set(id, text)
		}

		c := fieldsync.NewController("CLI")
		collect(c)

		result := c.OnFieldEdited(fieldsync.FieldVARange, texts)
		if result.RecomposedAddress == nil {
			return invalidFieldsError(texts, result.Validity)
		}

		prefix, _ := flags.GetBool("prefix")
		if prefix {
			fmt.Fprint(cmd.OutOrStdout(), "0x")
		}
		fmt.Fprintln(cmd.OutOrStdout(), *result.RecomposedAddress)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)

	composeCmd.Flags().String("va-range", "bottom",
		"VA range: bottom, top, 0 or 1")
	composeCmd.Flags().String("l3", "0", "L3 index (0-511)")
	composeCmd.Flags().String("l2", "0", "L2 index (0-511)")
	composeCmd.Flags().String("l1", "0", "L1 index (0-511)")
	composeCmd.Flags().String("l0", "0", "L0 index (0-511)")
	composeCmd.Flags().String("offset", "0", "page offset (0-4095)")
	composeCmd.Flags().Bool("prefix", false, "print the 0x prefix")
}

func flagName(id fieldsync.FieldID) string {
	if id == fieldsync.FieldVARange {
		return "va-range"
	}

	return id.String()
}

// invalidFieldsError explains every field the controller marked invalid.
func invalidFieldsError(
	texts fieldsync.FieldTexts,
	validity map[fieldsync.FieldID]bool,
) error {
	var errs []error

	for _, id := range fieldsync.DecomposedFields() {
		if validity[id] {
			continue
		}

		var err error
		switch id {
		case fieldsync.FieldVARange:
			_, err = vaddr.ParseVARange(texts.VARange)
		case fieldsync.FieldOffset:
			_, err = vaddr.ParseField(texts.Offset, vaddr.OffsetBound)
		default:
			_, err = vaddr.ParseField(texts.Get(id), vaddr.IndexBound)
		}

		errs = append(errs, fmt.Errorf("--%s: %w", flagName(id), err))
	}

	return errors.Join(errs...)
}
