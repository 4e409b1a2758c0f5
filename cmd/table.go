package cmd

import (
	"github.com/pterm/pterm"
)

// PrintTableNoPad renders rows without the blank line pterm puts around tables.
func PrintTableNoPad(data pterm.TableData, withHeader bool) {
	table := pterm.DefaultTable.WithData(data)
	if withHeader {
		table = table.WithHasHeader()
	}
	out, err := table.Srender()
	if err != nil {
		pterm.Error.Printf("Failed to render table: %v\n", err)
		return
	}
	pterm.Println(out)
}
