package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and migrate rule sets",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check loaded rules for configuration mistakes",
	Long: `Check the loaded rule set for mistakes that would silently disable
matching: missing names, empty destinations, active rules without
triggers and operators that do not apply to their criteria type.`,
	Args: cobra.NoArgs,
	RunE: runRulesValidate,
}

var rulesMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert legacy rules to the current format",
	Long: `Convert legacy single-criteria rules to the current trigger-based
format. Rules that cannot be converted are kept as disabled
placeholders so no configuration is lost. Migration only runs when
no current-format rules exist yet.`,
	Args: cobra.NoArgs,
	RunE: runRulesMigrate,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesMigrateCmd)
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	problems := apiClient.Rules.ValidateRules()

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string][]string{"problems": problems})
	}

	if len(problems) == 0 {
		printSuccess("All rules are valid")
		return nil
	}
	for _, p := range problems {
		printWarning("%s", p)
	}
	printInfo("%d problems found", len(problems))
	return nil
}

func runRulesMigrate(cmd *cobra.Command, args []string) error {
	loaded, err := apiClient.Settings.Load()
	if err != nil {
		return err
	}

	if !apiClient.Migration.ShouldMigrate(loaded.Rules, loaded.RulesV2) {
		printInfo("Nothing to migrate: %d legacy rules, %d current rules",
			len(loaded.Rules), len(loaded.RulesV2))
		return nil
	}

	loaded.RulesV2 = apiClient.Migration.MigrateRules(loaded.Rules)
	if err := apiClient.Settings.Save(loaded); err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(loaded.RulesV2)
	}

	active := 0
	for _, r := range loaded.RulesV2 {
		if r.Active {
			active++
		}
	}
	printSuccess("Migrated %d rules (%d active, %d kept as disabled placeholders)",
		len(loaded.RulesV2), active, len(loaded.RulesV2)-active)
	return nil
}
