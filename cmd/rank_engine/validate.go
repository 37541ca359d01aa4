package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/jonathan/rank-engine/internal/schemas"
	"github.com/spf13/cobra"
)

var (
	validateSchema string
	validateJSON   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against a schema",
	Long: `Validate a JSON file against one of the embedded schemas (candidate_pool, weight_proposal)
or a JSON Schema file on disk.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "", "Embedded schema name or path to a schema file (required)")
	validateCmd.Flags().StringVarP(&validateJSON, "json", "j", "", "Path to the JSON file to validate (required)")

	if err := validateCmd.MarkFlagRequired("schema"); err != nil {
		panic(fmt.Sprintf("failed to mark schema flag as required: %v", err))
	}
	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var err error
	if slices.Contains(schemas.Names(), validateSchema) {
		data, readErr := os.ReadFile(validateJSON)
		if readErr != nil {
			return fmt.Errorf("failed to read JSON file %s: %w", validateJSON, readErr)
		}
		err = schemas.Validate(validateSchema, data)
	} else {
		err = schemas.ValidateJSON(validateSchema, validateJSON)
	}

	out := cmd.OutOrStdout()
	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		_, _ = fmt.Fprintf(out, "Validation failed: %s", validationErr.Error())
		return fmt.Errorf("%s does not match %s", validateJSON, validateSchema)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "Validation passed")
	return nil
}
