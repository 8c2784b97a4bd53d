package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var allocateCmd = &cobra.Command{
	Use:   "allocate [project]...",
	Short: "Allocate observed CI jobs to projects",
	Long:  "Run the full pipeline: expand every project's expected job names and partition the observed job list among projects, exact matches first, heuristic fallback for projects without definition coverage. Projects default to the config file's list.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return allocateJobs(cmd, args)
	},
}

func registerAllocateCommand(root *cobra.Command) {
	root.AddCommand(allocateCmd)

	allocateCmd.Flags().StringVarP(&jobsFile, "jobs", "j", "", "File with observed job names, one per line")
	allocateCmd.MarkFlagRequired("jobs")
}

func allocateJobs(cmd *cobra.Command, projects []string) error {
	observed, err := readJobList(jobsFile)
	if err != nil {
		return err
	}

	fmt.Println("□ Loading definitions...")
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	eng.printLoadDiagnostics()

	if len(projects) == 0 {
		projects = eng.cfg.Projects
	}
	if len(projects) == 0 {
		return fmt.Errorf("no projects given and none configured")
	}

	fmt.Printf("□ Allocating %d observed jobs across %d projects...\n", len(observed), len(projects))
	run, err := eng.resolver.Run(cmd.Context(), projects, observed)
	if err != nil {
		return err
	}

	for _, pr := range run.Projects {
		fmt.Printf("\n[Project] %s (strategy: %s, method: %s)\n", pr.Project, pr.Strategy, pr.Allocation.Method)
		for _, job := range pr.Allocation.Jobs {
			if job.Confidence < 1.0 {
				fmt.Printf("  %s (confidence %.2f)\n", job.Name, job.Confidence)
			} else {
				fmt.Printf("  %s\n", job.Name)
			}
		}
		if debugMode {
			if unresolved := pr.Expansion.Unresolved(); len(unresolved) > 0 {
				fmt.Printf("  Unresolved definitions: %d\n", len(unresolved))
			}
			for _, missing := range pr.MissingTemplates {
				fmt.Printf("  ! %v\n", missing)
			}
		}
	}

	if len(run.Orphans) > 0 {
		fmt.Printf("\nOrphan jobs (%d, attributable to no project):\n", len(run.Orphans))
		for _, job := range run.Orphans {
			fmt.Printf("  %s\n", job)
		}
	}
	return nil
}
