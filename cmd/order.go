package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wkalt/distplan/planspec"
)

var orderFile string

var colors = []*color.Color{
	color.New(color.FgRed),
	color.New(color.FgBlue),
	color.New(color.FgYellow),
	color.New(color.FgCyan),
	color.New(color.FgGreen),
	color.New(color.FgMagenta),
}

func nodeColor(id int64) *color.Color {
	return colors[id%int64(len(colors))]
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the order in which a plan's nodes can be scheduled",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if orderFile == "" {
			bailf("-f is required")
		}
		spec, err := planspec.LoadFile(orderFile)
		checkErr(err)
		opts, closer := buildOptions()
		graph, _, err := planspec.Build(ctx, spec, opts...)
		closer()
		checkErr(err)
		order, err := graph.DAG().TopologicalSort()
		checkErr(err)
		for i, id := range order {
			node, err := graph.Get(id)
			checkErr(err)
			parents := graph.DAG().Parents(id)
			inputs := make([]string, len(parents))
			for j, p := range parents {
				inputs[j] = strconv.FormatInt(p, 10)
			}
			c := nodeColor(id)
			fmt.Printf("%3d  %s %s", i, c.Sprintf("[%d]", id), node.Descriptor().Name)
			if len(inputs) > 0 {
				fmt.Printf("  <- %v", inputs)
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)
	orderCmd.PersistentFlags().StringVarP(&orderFile, "file", "f", "", "Plan specification")
}
