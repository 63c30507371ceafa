// Postcode converts virtual addresses to page-table-walk fields and back.
package main

import "github.com/sarchlab/postcode/postcode/cmd"

func main() {
	cmd.Execute()
}
