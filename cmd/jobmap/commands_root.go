package main

import "github.com/spf13/cobra"

var (
	configFile     string
	definitionsDir string
	templatesDir   string
	jobsFile       string
	debugMode      bool
	longFormat     bool
)

var rootCmd = &cobra.Command{
	Use:   "jobmap",
	Short: "Resolve CI job ownership from job-definition repositories",
	Long:  "jobmap parses the declarative job-definition and template repositories, expands templates into the concrete job names each project is expected to own, and allocates observed CI jobs to projects",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path (jobmap.yaml)")
	rootCmd.PersistentFlags().StringVar(&definitionsDir, "definitions-dir", "", "Use a local definition repository checkout instead of cloning")
	rootCmd.PersistentFlags().StringVar(&templatesDir, "templates-dir", "", "Use a local template repository checkout instead of cloning")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug output")

	registerResolveCommand(rootCmd)
	registerAllocateCommand(rootCmd)
	registerTemplatesCommand(rootCmd)
	registerCacheCommand(rootCmd)
}
