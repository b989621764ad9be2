package commands

import (
	"github.com/spf13/cobra"

	"github.com/servicekit/go-service-template/internal/cli/template"
)

func addProjectFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("without-kafka", false, "Exclude Kafka support from the generated service")
	cmd.Flags().StringP("template", "t", "", "Template source: local path, git URL or archive (default: working directory or "+template.DefaultSource+")")
	cmd.Flags().StringP("module", "m", "", "Go module path of the generated project (default: the name)")
}

func projectOptionsFromFlags(cmd *cobra.Command, name string) projectOptions {
	opts := projectOptions{name: name}
	opts.withoutKafka, _ = cmd.Flags().GetBool("without-kafka")
	opts.templateSrc, _ = cmd.Flags().GetString("template")
	opts.modulePath, _ = cmd.Flags().GetString("module")
	return opts
}
