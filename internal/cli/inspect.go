package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/weftlab/weft/pkg/codec"
	"github.com/weftlab/weft/pkg/graph"
)

// inspectCommand creates the "inspect" subcommand.
func (c *CLI) inspectCommand() *cobra.Command {
	var showContracts bool

	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Decode a snapshot and print its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			p := newProgress(logger)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			g, err := codec.Unmarshal(data)
			if err != nil {
				printError("Snapshot is not decodable: %v", err)
				return err
			}
			st := statsFor(g)
			p.done(fmt.Sprintf("Decoded %d parts", st.Parts))

			fmt.Println(StyleTitle.Render("Snapshot " + args[0]))
			printKeyValue("size", fmt.Sprintf("%d bytes", len(data)))
			printKeyValue("parts", fmt.Sprintf("%d (%d instantiable, %d shared)",
				st.Parts, st.Instantiable, st.Shared))
			printKeyValue("exports", fmt.Sprintf("%d", st.Exports))
			printKeyValue("imports", fmt.Sprintf("%d", st.Imports))
			printKeyValue("contracts", fmt.Sprintf("%d", len(st.Contracts)))
			printKeyValue("view providers", fmt.Sprintf("%d", st.ViewProviders))

			if showContracts {
				fmt.Println()
				fmt.Println(StyleTitle.Render("Contracts"))
				for _, cs := range st.Contracts {
					printDetail("%-32s %d export(s)", cs.Name, cs.Exports)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showContracts, "contracts", false, "list contracts with export counts")
	return cmd
}

// contractStat is one row of the per-contract listing.
type contractStat struct {
	Name    string
	Exports int
}

// snapshotStats summarizes a decoded graph.
type snapshotStats struct {
	Parts         int
	Instantiable  int
	Shared        int
	Exports       int
	Imports       int
	ViewProviders int
	Contracts     []contractStat // sorted by name
}

// statsFor counts what inspect reports.
func statsFor(g *graph.Graph) snapshotStats {
	st := snapshotStats{ViewProviders: len(g.ViewProviders())}
	byContract := make(map[string]int)

	for _, p := range g.Parts() {
		st.Parts++
		if p.Instantiable() {
			st.Instantiable++
		}
		if p.Shared() {
			st.Shared++
		}
		st.Imports += len(p.AllImports())
		for _, ex := range p.Exports {
			st.Exports++
			byContract[ex.Contract]++
		}
	}

	for name, n := range byContract {
		st.Contracts = append(st.Contracts, contractStat{Name: name, Exports: n})
	}
	sort.Slice(st.Contracts, func(i, j int) bool {
		return st.Contracts[i].Name < st.Contracts[j].Name
	})
	return st
}
