package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"
	"github.com/wkalt/distplan/distplan"
	"github.com/wkalt/distplan/planspec"
	"github.com/wkalt/distplan/planwire"
	"github.com/wkalt/distplan/publish"
	"github.com/wkalt/distplan/storage"
	"github.com/wkalt/distplan/util/log"
)

var (
	renderFile        string
	renderJSON        bool
	renderOut         string
	renderGlob        string
	renderRoot        string
	renderConcurrency int

	// Directory storage provider options
	renderDataDir string

	// S3 storage provider options
	renderS3Endpoint  string
	renderS3AccessKey string
	renderS3SecretKey string
	renderS3Bucket    string
	renderS3UseTLS    bool
	renderS3Region    string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render plan specifications into plan messages",
	Long: `Render a single plan specification with -f, writing the binary plan
message to --out or stdout. With --glob, every matching specification under
--root is rendered and published to the storage provider selected by
--data-dir or the S3 options.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if (renderFile == "") == (renderGlob == "") {
			bailf("exactly one of -f or --glob is required")
		}
		if renderFile != "" {
			renderOne(ctx)
			return
		}
		renderAll(ctx)
	},
}

func buildOptions() ([]planspec.BuildOption, func()) {
	opts := []planspec.BuildOption{planspec.WithValidation(true)}
	if catalogPath == "" {
		return opts, func() {}
	}
	c, closer := openCatalog()
	return append(opts, planspec.WithCatalog(c)), closer
}

func renderSpec(ctx context.Context, spec *planspec.Spec, opts []planspec.BuildOption) (*planwire.DistributedPlan, error) {
	graph, _, err := planspec.Build(ctx, spec, opts...)
	if err != nil {
		return nil, err
	}
	return render(ctx, graph)
}

func render(ctx context.Context, graph *distplan.PlanGraph) (*planwire.DistributedPlan, error) {
	defer log.Time(ctx, "render plan")()
	plan, err := graph.Render()
	if err != nil {
		return nil, fmt.Errorf("failed to render plan: %w", err)
	}
	return plan, nil
}

func renderOne(ctx context.Context) {
	if !renderJSON && renderOut == "" && !stdoutRedirected() {
		bailf("Binary output can screw up your terminal. Redirect to a file, or use --out or --json.")
	}
	spec, err := planspec.LoadFile(renderFile)
	checkErr(err)
	opts, closer := buildOptions()
	plan, err := renderSpec(ctx, spec, opts)
	closer()
	checkErr(err)

	buf := &bytes.Buffer{}
	if renderJSON {
		checkErr(plan.WriteJSON(buf))
	} else {
		data, err := plan.MarshalBinary()
		checkErr(err)
		buf.Write(data)
	}

	if renderOut == "" {
		_, err = os.Stdout.Write(buf.Bytes())
		checkErr(err)
		return
	}
	checkErr(writeOutput(renderOut, buf.Bytes()))
	fmt.Fprintf(os.Stderr, "%s %s (%d nodes, fingerprint %016x)\n",
		color.GreenString("wrote"), renderOut, len(plan.Nodes), plan.Fingerprint())
}

// writeOutput writes data to path, removing the file if the write fails
// partway.
func writeOutput(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func storageProvider() storage.Provider {
	s3requested := renderS3Endpoint != "" ||
		renderS3AccessKey != "" ||
		renderS3SecretKey != "" ||
		renderS3Bucket != ""
	if renderDataDir != "" && s3requested {
		bailf("cannot specify both --data-dir and S3 options")
	}
	if renderDataDir == "" && !s3requested {
		bailf("must specify either --data-dir or S3 options")
	}
	if renderDataDir != "" {
		return storage.NewDirectoryStore(renderDataDir)
	}
	mc, err := minio.New(renderS3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(renderS3AccessKey, renderS3SecretKey, ""),
		Secure: renderS3UseTLS,
		Region: renderS3Region,
	})
	if err != nil {
		bailf("error creating S3 client: %s", err)
	}
	return storage.NewS3Store(mc, renderS3Bucket)
}

func renderAll(ctx context.Context) {
	store := storageProvider()
	files, err := planspec.Glob(renderRoot, renderGlob)
	checkErr(err)
	if len(files) == 0 {
		bailf("no plan specifications match %s", renderGlob)
	}
	opts, closer := buildOptions()
	publisher := publish.NewPublisher(store, publish.WithConcurrency(renderConcurrency))
	failed := 0
	seen := make(map[uuid.UUID]string, len(files))
	for _, file := range files {
		ctx := log.AddTags(ctx, "file", file.Path)
		plan, err := renderSpec(ctx, file.Spec, opts)
		if err == nil {
			err = claimQueryID(seen, plan.QueryID, file.Path)
		}
		if err == nil {
			err = publisher.Publish(ctx, plan)
		}
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", color.RedString("failed"), file.Path, err)
			continue
		}
		fmt.Printf("%s %s -> %s\n", color.GreenString("published"), file.Path, publish.PlanKey(plan.QueryID))
	}
	closer()
	if failed > 0 {
		bailf("%d of %d plans failed", failed, len(files))
	}
}

// claimQueryID records that path publishes queryID, failing if an earlier
// file already did.
func claimQueryID(seen map[uuid.UUID]string, queryID uuid.UUID, path string) error {
	if prev, ok := seen[queryID]; ok && queryID != uuid.Nil {
		return fmt.Errorf("query id %s is also used by %s", queryID, prev)
	}
	seen[queryID] = path
	return nil
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.PersistentFlags().StringVarP(&renderFile, "file", "f", "", "Plan specification to render")
	renderCmd.PersistentFlags().BoolVarP(&renderJSON, "json", "", false, "Write JSON instead of binary")
	renderCmd.PersistentFlags().StringVarP(&renderOut, "out", "o", "", "Output file (default stdout)")
	renderCmd.PersistentFlags().StringVarP(&renderGlob, "glob", "g", "", "Render and publish every specification matching this pattern")
	renderCmd.PersistentFlags().StringVarP(&renderRoot, "root", "", ".", "Directory --glob is evaluated against")
	renderCmd.PersistentFlags().IntVarP(&renderConcurrency, "concurrency", "", 8, "Objects written concurrently per plan")
	renderCmd.PersistentFlags().StringVarP(&renderDataDir, "data-dir", "d", "", "Data directory (for directory storage)")

	renderCmd.PersistentFlags().StringVar(&renderS3Endpoint, "s3-endpoint", "", "S3 endpoint (for S3 storage)")
	renderCmd.PersistentFlags().StringVar(&renderS3AccessKey, "s3-access-key-id", "", "S3 access key ID (for S3 storage)")
	renderCmd.PersistentFlags().StringVar(&renderS3SecretKey, "s3-secret-access-key", "", "S3 secret access key (for S3 storage)")
	renderCmd.PersistentFlags().StringVar(&renderS3Bucket, "s3-bucket", "", "S3 bucket (for S3 storage)")
	renderCmd.PersistentFlags().BoolVar(&renderS3UseTLS, "s3-use-tls", false, "Use TLS for S3 connections")
	renderCmd.PersistentFlags().StringVar(&renderS3Region, "s3-region", "", "S3 region (for S3 storage)")
}
