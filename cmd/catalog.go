package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wkalt/distplan/distplan"
	"github.com/wkalt/distplan/util"
	"gopkg.in/yaml.v3"
)

var catalogPutFile string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the node catalog",
}

var catalogPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Insert or replace descriptors from a YAML list",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if catalogPutFile == "" {
			bailf("-f is required")
		}
		data, err := os.ReadFile(catalogPutFile)
		checkErr(err)
		descriptors := []distplan.Descriptor{}
		checkErr(yaml.Unmarshal(data, &descriptors))
		c, closer := openCatalog()
		defer closer()
		for _, d := range descriptors {
			checkErr(c.Put(ctx, d))
		}
		color.Green("stored %d descriptors", len(descriptors))
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog descriptors",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		c, closer := openCatalog()
		defer closer()
		descriptors, err := c.List(ctx)
		checkErr(err)
		headers := []string{"Name", "Address", "Role", "Agent ID", "gRPC Address", "ASID"}
		rows := make([][]string, 0, len(descriptors))
		for _, d := range descriptors {
			rows = append(rows, []string{
				d.Name,
				d.QueryBrokerAddress,
				util.When(d.IsAgent(), "agent", "kelvin"),
				util.When(d.AgentID == uuid.Nil, "", d.AgentID.String()),
				d.GRPCAddress,
				strconv.FormatUint(uint64(d.ASID), 10),
			})
		}
		printTable(os.Stdout, headers, rows)
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete [name...]",
	Short: "Remove descriptors from the catalog",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		c, closer := openCatalog()
		defer closer()
		for _, name := range args {
			checkErr(c.Delete(ctx, name))
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogPutCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogDeleteCmd)

	catalogPutCmd.PersistentFlags().StringVarP(&catalogPutFile, "file", "f", "", "YAML file containing a list of descriptors")
}
