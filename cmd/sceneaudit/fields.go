package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/sceneaudit/internal/treesitter"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields <script>...",
	Short: "List the serializable fields a script declares",
	Long: `Parse one or more scripts with Tree-sitter and print the fields that the
scan treats as declared: fields with a qualifying accessibility modifier or a
serialization attribute, excluding const and static fields.

Examples:
  sceneaudit fields Assets/Scripts/Mover.cs
  sceneaudit fields Assets/Scripts/*.cs`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFields,
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}

func runFields(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	opts := treesitter.ExtractOptions{
		Accessibility:       cfg.Scripts.Accessibility,
		SerializeAttributes: cfg.Scripts.SerializeAttributes,
	}

	failed := 0
	for _, path := range args {
		result := treesitter.ParseFile(ctx, path, opts)
		if result.Error != nil {
			failed++
			fmt.Printf("%s: %v\n", path, result.Error)
			continue
		}
		fmt.Printf("%s (%d fields)\n", path, len(result.Fields))
		for _, name := range result.Fields.Names() {
			fmt.Printf("  %s\n", name)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d script(s) could not be parsed", failed, len(args))
	}
	return nil
}
