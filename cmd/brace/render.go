package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	renderDataFile string
	renderOutFile  string
	renderNoCache  bool
)

// renderCmd renders one template file against a YAML data file.
var renderCmd = &cobra.Command{
	Use:   "render <template>",
	Short: "Render a template file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := loadData(renderDataFile)
		if err != nil {
			return err
		}

		eng, _, err := newEngine(renderNoCache)
		if err != nil {
			return err
		}

		out, err := eng.Render(args[0], data)
		if err != nil {
			return err
		}

		if renderOutFile != "" {
			return os.WriteFile(renderOutFile, []byte(out), 0o644)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func loadData(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parsing data file %q: %w", path, err)
	}
	return data, nil
}

func init() {
	renderCmd.Flags().StringVarP(&renderDataFile, "data", "d", "", "YAML file with render data")
	renderCmd.Flags().StringVarP(&renderOutFile, "out", "o", "", "write output to file instead of stdout")
	renderCmd.Flags().BoolVar(&renderNoCache, "no-cache", false, "bypass the render cache")
	rootCmd.AddCommand(renderCmd)
}
