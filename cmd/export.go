package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export <interview-id>",
	Short: "Export an interview transcript as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if format != "json" && format != "yaml" {
			return fmt.Errorf("unsupported format %q: use json or yaml", format)
		}

		var exp interview.Export
		err := withStore(cmd, func(st *store.Store) error {
			var err error
			exp, err = interview.NewService(interview.Deps{Repo: st.Sessions()}).Export(cmd.Context(), args[0])
			return err
		})
		if err != nil {
			return err
		}

		var data []byte
		if format == "yaml" {
			data, err = yaml.Marshal(exp)
		} else {
			data, err = json.MarshalIndent(exp, "", "  ")
			data = append(data, '\n')
		}
		if err != nil {
			return fmt.Errorf("encode export: %w", err)
		}

		if output == "" || output == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}
