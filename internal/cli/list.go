package cli

import (
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-docgen/pkg/template"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available templates",
		Run:   runList,
	}

	cmd.Flags().String("type", "", "Filter by template type")
	cmd.Flags().String("language", "", "Filter by language")
	cmd.Flags().String("format", "", "Filter by output format")
	cmd.Flags().StringP("search", "s", "", "Fuzzy match template ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	typeFlag, _ := cmd.Flags().GetString("type")
	language, _ := cmd.Flags().GetString("language")
	format, _ := cmd.Flags().GetString("format")
	search, _ := cmd.Flags().GetString("search")

	eng, err := newEngine()
	if err != nil {
		exitErr("build engine", err)
	}
	defer eng.Close()

	ids, err := eng.ListTemplates(cmd.Context(), template.Filter{
		Type:     template.Type(typeFlag),
		Language: language,
		Format:   template.Format(format),
	})
	if err != nil {
		exitErr("list templates", err)
	}

	if search != "" {
		matches := fuzzy.Find(search, ids)
		ids = ids[:0]
		for _, match := range matches {
			ids = append(ids, match.Str)
		}
	}

	for _, id := range ids {
		fmt.Println(id)
	}
}
