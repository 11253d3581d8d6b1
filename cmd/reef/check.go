package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"reef/internal/analysis"
	"reef/internal/diag"
	"reef/internal/diagfmt"
	"reef/internal/index"
	"reef/internal/project"
)

var (
	checkFormat  string
	checkNoCache bool
	checkJobs    int
	checkContext bool
)

var errCheckFailed = errors.New("check failed")

var (
	checkOKStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	checkFailStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	checkWarnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
)

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "do not reuse the on-disk scan cache")
	checkCmd.Flags().IntVar(&checkJobs, "jobs", 0, "scan parallelism (0 = number of CPUs)")
	checkCmd.Flags().BoolVar(&checkContext, "context", true, "print source context under diagnostics")
}

var checkCmd = &cobra.Command{
	Use:           "check [dir]",
	Short:         "Check a Reef project and report diagnostics",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
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
	if _, err := project.LoadManifest(filepath.Join(root, project.ManifestName)); err != nil {
		return err
	}
	srcDir := filepath.Join(root, project.SourceDir)

	var cache *index.Cache
	if !checkNoCache {
		// A broken cache dir degrades to scanning from scratch.
		cache, _ = index.OpenCache("reef")
	}
	idx, err := index.Build(cmd.Context(), srcDir, index.BuildOptions{
		Cache: cache,
		Jobs:  checkJobs,
	})
	if err != nil {
		return err
	}

	files, err := index.ListSourceFiles(srcDir)
	if err != nil {
		return err
	}

	maxDiagnostics, _ := cmd.Flags().GetInt("max-diagnostics")
	quiet, _ := cmd.Flags().GetBool("quiet")
	colorize := colorEnabled(cmd, os.Stdout)
	out := cmd.OutOrStdout()

	var entries []diagfmt.Entry
	errorCount, warningCount := 0, 0
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		text := string(content)
		bag := analysis.Analyze(index.ModuleName(srcDir, path), text, idx, analysis.Options{
			MaxDiagnostics: maxDiagnostics,
		})
		for _, d := range bag.Items() {
			switch {
			case d.Severity >= diag.SevError:
				errorCount++
			case d.Severity == diag.SevWarning:
				warningCount++
			}
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		switch checkFormat {
		case "json":
			entries = append(entries, diagfmt.Entry{Path: rel, Text: text, Bag: bag})
		case "pretty":
			diagfmt.Pretty(out, rel, text, bag, diagfmt.PrettyOpts{
				Color:   colorize,
				Context: checkContext,
			})
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", checkFormat)
		}
	}

	if checkFormat == "json" {
		if err := diagfmt.JSONAll(out, entries); err != nil {
			return err
		}
	} else if !quiet {
		fmt.Fprintln(out, checkSummary(len(files), errorCount, warningCount))
	}

	if errorCount > 0 {
		return errCheckFailed
	}
	return nil
}

func checkSummary(fileCount, errorCount, warningCount int) string {
	switch {
	case errorCount > 0:
		return checkFailStyle.Render(fmt.Sprintf(
			"✗ %d error(s), %d warning(s) in %d module(s)",
			errorCount, warningCount, fileCount))
	case warningCount > 0:
		return checkWarnStyle.Render(fmt.Sprintf(
			"! %d warning(s) in %d module(s)", warningCount, fileCount))
	default:
		return checkOKStyle.Render(fmt.Sprintf("✓ %d module(s) clean", fileCount))
	}
}
