package cli

import (
	"github.com/spf13/cobra"

	"wayfarer/internal/modules/intent"
)

func newClassifyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message>",
		Short: "Show the intent a message routes to",
		Example: `  wayfarer classify "Find flights from New York to London on June 15th"
  wayfarer classify "thanks!"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := joinArgs(args)
			if err != nil {
				return err
			}
			in := intent.NewClassifier(intent.DefaultRules).Classify(text)
			if in == nil {
				printf(cmd, "no intent (small talk or unrecognized)\n")
				return nil
			}
			route := "generic generation"
			if in.Dispatchable(e.cfg.Assistant.IntentThreshold) {
				route = "handler"
			}
			printf(cmd, "category:   %s\nconfidence: %.2f\nmatched:    %q\nroute:      %s\n",
				in.Category, in.Confidence, in.ExtractedText, route)
			return nil
		},
	}
}
