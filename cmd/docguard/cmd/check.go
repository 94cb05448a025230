package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/docguard/internal/rules"
	"github.com/solatis/docguard/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check --rules <rules.yaml> --type <document_type> [content.json|-]",
	Short: "Validate a document against a rule file without a database",
	Long: `Evaluates extracted document content (a JSON object) against the rules in
a YAML rule file and prints checks, issues and the recommended status as
JSON. Nothing is persisted. Reads stdin when the path is '-' or omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("rules", "", "YAML rule file (required)")
	checkCmd.Flags().String("type", "", "document type (required)")
	checkCmd.Flags().Bool("strict", false, "exit non-zero when the recommended status is rejected")
	_ = checkCmd.MarkFlagRequired("rules")
	_ = checkCmd.MarkFlagRequired("type")
}

// checkOutput is the JSON printed by docguard check.
type checkOutput struct {
	DocumentType string                  `json:"documentType"`
	Checks       []types.ValidationCheck `json:"checks"`
	Issues       []types.ValidationIssue `json:"issues"`
	Status       types.DocumentStatus    `json:"status"`
	Flagged      bool                    `json:"flagged"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	rulesPath, _ := cmd.Flags().GetString("rules")
	documentType, _ := cmd.Flags().GetString("type")
	strict, _ := cmd.Flags().GetBool("strict")

	ruleSet, err := rules.LoadRuleFile(rulesPath)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open content: %w", err)
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	content, err := types.DecodeContent(raw)
	if err != nil {
		return err
	}

	engine := rules.NewEngine(rules.StaticSource(ruleSet), rules.DiscardSink{}, rules.WithLogger(logger.Named("engine")))
	result, err := engine.Validate(commandContext(cmd), "local", documentType, content)
	if err != nil {
		return err
	}
	recommendation := result.Status()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(checkOutput{
		DocumentType: documentType,
		Checks:       result.Checks,
		Issues:       result.Issues,
		Status:       recommendation.Status,
		Flagged:      recommendation.Flagged,
	}); err != nil {
		return err
	}

	if strict && recommendation.Status == types.StatusRejected {
		return fmt.Errorf("document rejected: %d issue(s)", len(result.Issues))
	}
	return nil
}
