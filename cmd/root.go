package cmd

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3" // sqlite driver for the node catalog
	"github.com/spf13/cobra"
	"github.com/wkalt/distplan/catalog"
	"github.com/wkalt/distplan/util/log"
)

var (
	logLevel    string
	catalogPath string
)

var rootCmd = &cobra.Command{
	Use:   "distplan",
	Short: "Build, render and inspect distributed query plans",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := log.ParseLevel(logLevel)
		checkErr(err)
		log.SetDefault(os.Stderr, level)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func bailf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func checkErr(err error) {
	if err != nil {
		bailf("error: %v", err)
	}
}

// openCatalog opens the sqlite catalog named by --catalog. The returned
// function closes the database.
func openCatalog() (catalog.Catalog, func()) {
	if catalogPath == "" {
		bailf("--catalog is required")
	}
	db, err := sql.Open("sqlite3", catalogPath)
	if err != nil {
		bailf("error opening catalog: %s", err)
	}
	c, err := catalog.NewSQLCatalog(db)
	if err != nil {
		db.Close()
		bailf("error initializing catalog: %s", err)
	}
	return c, func() { db.Close() }
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "", "", "Path to the sqlite node catalog")
}
