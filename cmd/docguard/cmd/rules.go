package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/solatis/docguard/internal/core/db"
	"github.com/solatis/docguard/internal/core/store"
	"github.com/solatis/docguard/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage validation rules",
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <rules.yaml>",
	Short: "Insert or update rules from a YAML rule file",
	Long: `Reads a rule file with a top-level 'rules' list and upserts every entry
by id. Entries without an id get a new one; re-importing a file with ids is
idempotent. Running servers pick up changes when their rule cache expires,
or immediately on SIGHUP.`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesImport,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored rules as YAML",
	RunE:  runRulesList,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesImportCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().String("type", "", "only rules for this document type")
}

func openStore(cmd *cobra.Command) (*store.Store, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	database, queries, err := openDB(commandContext(cmd), cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RequireMigrated(database); err != nil {
		database.Close()
		return nil, nil, err
	}
	return store.New(queries), func() { database.Close() }, nil
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	parsed, err := rules.LoadRuleFile(args[0])
	if err != nil {
		return err
	}

	s, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := s.UpsertRules(commandContext(cmd), parsed); err != nil {
		return err
	}
	logger.Info("rules imported", zap.String("file", args[0]), zap.Int("count", len(parsed)))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d rule(s)\n", len(parsed))
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	s, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	documentType, _ := cmd.Flags().GetString("type")
	ruleSet, err := s.ListRules(commandContext(cmd), documentType)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(map[string]interface{}{"rules": ruleSet})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
