package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-docgen/pkg/template"
	"github.com/goliatone/go-docgen/pkg/validate"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a template document and report its quality score",
		Args:  cobra.ExactArgs(1),
		Run:   runValidate,
	}
	RootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read template", err)
	}
	tmpl, err := template.Parse(data, args[0])
	if err != nil {
		exitErr("parse template", err)
	}

	validator := validate.New()
	var results []template.ValidationResult
	results = append(results, validator.ValidateStructure(tmpl)...)
	results = append(results, validator.ValidateContent(tmpl)...)
	results = append(results, validator.ValidateVariables(tmpl, tmpl.Variables)...)
	results = append(results, validator.CheckCompleteness(tmpl, tmpl.Variables)...)

	failed := false
	for _, res := range results {
		if res.Passed {
			continue
		}
		fmt.Printf("%s: %s: %s\n", res.Severity, res.Rule, res.Message)
		if res.Severity == template.SeverityError {
			failed = true
		}
	}

	score := validator.CalculateQualityScore(tmpl)
	fmt.Printf("score: %d (%s)\n", score, validate.Tier(score))
	if failed {
		os.Exit(1)
	}
}
