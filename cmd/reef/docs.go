package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"reef/internal/docs"
	"reef/internal/index"
	"reef/internal/project"
	"reef/internal/version"
)

var (
	docsOut  string
	docsJobs int
)

func init() {
	docsCmd.Flags().StringVar(&docsOut, "out", "docs", "output directory for the generated site")
	docsCmd.Flags().IntVar(&docsJobs, "jobs", 0, "page rendering parallelism (0 = one per module)")
}

var docsCmd = &cobra.Command{
	Use:          "docs [dir]",
	Short:        "Generate HTML documentation for a Reef project",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runDocs,
}

func runDocs(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	root, ok, err := project.FindProjectRoot(dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no %s found in or above %s", project.ManifestName, dir)
	}
	manifest, err := project.LoadManifest(filepath.Join(root, project.ManifestName))
	if err != nil {
		return err
	}

	idx, err := index.Build(cmd.Context(), filepath.Join(root, project.SourceDir), index.BuildOptions{})
	if err != nil {
		return err
	}

	files, err := docs.Generate(cmd.Context(), root, manifest, idx, docs.Options{
		Version: version.Plain,
		Jobs:    docsJobs,
	})
	if err != nil {
		return err
	}

	outDir := docsOut
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(root, outDir)
	}
	if err := docs.WriteAll(outDir, files); err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d file(s) to %s\n", len(files), outDir)
	}
	return nil
}
