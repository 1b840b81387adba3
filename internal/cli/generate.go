package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-docgen/pkg/engine"
	"github.com/goliatone/go-docgen/pkg/template"
)

// promptFn is swapped out in tests so interactive runs need no terminal.
var promptFn = func(message string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Input{Message: message}, &out)
	return out, err
}

func init() {
	cmd := &cobra.Command{
		Use:   "generate <template-id>",
		Short: "Render a template with variable bindings",
		Args:  cobra.ExactArgs(1),
		Run:   runGenerate,
	}

	cmd.Flags().StringArrayP("var", "v", nil, "Variable binding as name=value (repeatable)")
	cmd.Flags().String("vars-file", "", "JSON file of variable bindings")
	cmd.Flags().BoolP("interactive", "i", false, "Prompt for required variables that are not bound")
	cmd.Flags().StringP("output", "o", "", "Output file (stdout if empty)")
	cmd.Flags().Bool("stats", false, "Print cache statistics to stderr afterwards")

	RootCmd.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	vars, _ := cmd.Flags().GetStringArray("var")
	varsFile, _ := cmd.Flags().GetString("vars-file")
	interactive, _ := cmd.Flags().GetBool("interactive")
	output, _ := cmd.Flags().GetString("output")
	showStats, _ := cmd.Flags().GetBool("stats")

	bindings, err := collectBindings(vars, varsFile)
	if err != nil {
		exitErr("parse bindings", err)
	}

	eng, err := newEngine()
	if err != nil {
		exitErr("build engine", err)
	}
	defer eng.Close()

	templateID := args[0]
	if interactive {
		if err := promptMissing(cmd, eng, templateID, bindings); err != nil {
			exitErr("prompt variables", err)
		}
	}

	result, err := eng.Generate(cmd.Context(), engine.Request{
		TemplateID: templateID,
		Bindings:   bindings,
		Strict:     strictFlag,
	})
	if err != nil {
		exitErr("generate", err)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	if !result.Success {
		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		}
		os.Exit(1)
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(result.Output), 0o644); err != nil {
			exitErr("write output", err)
		}
		fmt.Fprintf(os.Stderr, "document written to %s (quality %s, %.1fms)\n",
			output, result.Quality, result.GenerationTimeMs)
	} else {
		fmt.Println(result.Output)
	}

	if showStats {
		b, _ := json.MarshalIndent(eng.Cache().Stats(), "", "  ")
		fmt.Fprintln(os.Stderr, string(b))
	}
}

// collectBindings merges --vars-file and --var flags, the flags winning.
func collectBindings(vars []string, varsFile string) (template.Bindings, error) {
	bindings := template.Bindings{}

	if varsFile != "" {
		data, err := os.ReadFile(varsFile)
		if err != nil {
			return nil, err
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", varsFile, err)
		}
		fromFile, err := template.BindingsFromAny(raw)
		if err != nil {
			return nil, err
		}
		bindings = fromFile
	}

	for _, pair := range vars {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid binding %q, expected name=value", pair)
		}
		bindings[name] = template.String(value)
	}
	return bindings, nil
}

// promptMissing asks for every declared-required variable that is absent
// from the bindings.
func promptMissing(cmd *cobra.Command, eng *engine.Engine, id string, bindings template.Bindings) error {
	tmpl, err := eng.LoadTemplate(cmd.Context(), id)
	if err != nil {
		return err
	}
	for _, def := range tmpl.Config.Variables {
		if !def.IsRequired() {
			continue
		}
		if _, bound := bindings[def.Name]; bound {
			continue
		}
		answer, err := promptFn(fmt.Sprintf("Value for %q (%s):", def.Name, def.Type))
		if err != nil {
			return err
		}
		bindings[def.Name] = template.String(answer)
	}
	return nil
}
