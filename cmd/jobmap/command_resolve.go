package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <project>...",
	Short: "Resolve the expected job names for projects",
	Long:  "Locate each project's definition blocks, expand the referenced templates and print the concrete job names the project is expected to own",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveProjects(cmd, args)
	},
}

func registerResolveCommand(root *cobra.Command) {
	root.AddCommand(resolveCmd)
}

func resolveProjects(cmd *cobra.Command, projects []string) error {
	fmt.Println("□ Loading definitions...")
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	eng.printLoadDiagnostics()

	for _, project := range projects {
		result := eng.resolver.ResolveProject(project)

		fmt.Printf("\n[Project] %s\n", project)
		fmt.Printf("  Strategy:  %s\n", result.Strategy)
		fmt.Printf("  Blocks:    %d\n", len(result.Blocks))

		matchable := result.Expansion.Matchable()
		fmt.Printf("  Jobs (%d):\n", len(matchable))
		for _, name := range matchable {
			fmt.Printf("    %s\n", name)
		}

		if unresolved := result.Expansion.Unresolved(); len(unresolved) > 0 {
			fmt.Printf("  Unresolved (%d):\n", len(unresolved))
			for _, job := range unresolved {
				fmt.Printf("    %s (template %s)\n", job.Name, job.Template)
			}
		}
		for _, missing := range result.MissingTemplates {
			fmt.Printf("  ! %v\n", missing)
		}
		if len(result.Blocks) == 0 {
			fmt.Println("  No definition coverage; allocation will fall back to heuristic matching")
		}
	}
	return nil
}
