package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wkalt/distplan/fragment"
	"github.com/wkalt/distplan/planwire"
	"github.com/wkalt/distplan/util"
)

var inspectFragments bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Print the contents of a rendered plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		plan, err := readPlan(args[0])
		checkErr(err)
		printPlan(plan)
	},
}

// readPlan reads a plan in binary form, or JSON if the file has a .json
// extension.
func readPlan(path string) (*planwire.DistributedPlan, error) {
	if filepath.Ext(path) == ".json" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open plan: %w", err)
		}
		defer f.Close()
		return planwire.ReadJSON(f)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	plan := &planwire.DistributedPlan{}
	if err := plan.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return plan, nil
}

// describeFragment returns the textual form of a fragment if it decodes as
// one, otherwise its size.
func describeFragment(data []byte) string {
	if node, err := fragment.Decode(data); err == nil {
		return node.String()
	}
	return util.HumanBytes(uint64(len(data)))
}

func printPlan(plan *planwire.DistributedPlan) {
	bold := color.New(color.Bold)
	bold.Printf("query %s", plan.QueryID)
	fmt.Printf(" version=%d distributed=%t fingerprint=%016x\n\n",
		plan.Version, plan.Distributed, plan.Fingerprint())

	headers := []string{"ID", "Name", "Address", "Role", "ASID", "Fragment"}
	if !inspectFragments {
		headers[len(headers)-1] = "Fragment Size"
	}
	rows := make([][]string, 0, len(plan.Nodes))
	for _, node := range plan.Nodes {
		frag := util.HumanBytes(uint64(len(node.Fragment)))
		if inspectFragments {
			frag = describeFragment(node.Fragment)
		}
		rows = append(rows, []string{
			strconv.FormatInt(node.ID, 10),
			node.Info.Name,
			node.Info.QueryBrokerAddress,
			util.When(node.Info.HasDataStore, "agent", "kelvin"),
			strconv.FormatUint(uint64(node.Info.ASID), 10),
			frag,
		})
	}
	printTable(os.Stdout, headers, rows)
	fmt.Println()

	names := make(map[int64]string, len(plan.Nodes))
	for _, node := range plan.Nodes {
		names[node.ID] = node.Info.Name
	}
	edges := make([][]string, 0, len(plan.Edges))
	for _, e := range plan.Edges {
		edges = append(edges, []string{
			fmt.Sprintf("%d (%s)", e.From, names[e.From]),
			fmt.Sprintf("%d (%s)", e.To, names[e.To]),
		})
	}
	printTable(os.Stdout, []string{"From", "To"}, edges)
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.PersistentFlags().BoolVarP(&inspectFragments, "fragments", "", false, "Print decoded fragments")
}
