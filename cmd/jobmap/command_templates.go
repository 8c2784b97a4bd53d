package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates [name]",
	Short: "List loaded job templates",
	Long:  "List the templates loaded from the template repository. Use 'jobmap templates <name>' for pattern, placeholders and defaults.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listTemplates(cmd, args)
	},
}

func registerTemplatesCommand(root *cobra.Command) {
	root.AddCommand(templatesCmd)

	templatesCmd.Flags().BoolVarP(&longFormat, "long", "l", false, "Show detailed information")
}

func listTemplates(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}

	if len(args) > 0 {
		tmpl, ok := eng.registry.Lookup(args[0])
		if !ok {
			return fmt.Errorf("template not found: %s", args[0])
		}
		printTemplateDetails(tmpl.Name, eng)
		return nil
	}

	fmt.Printf("Templates (%d):\n", eng.registry.Len())
	for _, name := range eng.registry.Names() {
		if longFormat {
			printTemplateDetails(name, eng)
			continue
		}
		fmt.Printf("  %s\n", name)
	}
	if !longFormat {
		fmt.Println("\nRun 'jobmap templates <name>' for detailed information")
	}
	return nil
}

func printTemplateDetails(name string, eng *engine) {
	tmpl, ok := eng.registry.Lookup(name)
	if !ok {
		return
	}
	fmt.Printf("\n[Template] %s\n", tmpl.Name)
	fmt.Printf("  Pattern:      %s\n", tmpl.Pattern)
	fmt.Printf("  Placeholders: %v\n", tmpl.Placeholders)
	fmt.Printf("  Source:       %s\n", tmpl.SourcePath)
	if len(tmpl.Defaults) > 0 {
		fmt.Println("  Defaults:")
		keys := make([]string, 0, len(tmpl.Defaults))
		for k := range tmpl.Defaults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("    %s: %s\n", k, tmpl.Defaults[k])
		}
	}
}
