package cli

import (
	"github.com/spf13/cobra"

	"wayfarer/internal/modules/location"
)

func newResolveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "resolve <place>",
		Short:   "Resolve a place name to a 3-letter location code",
		Example: `  wayfarer resolve "New York"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			place, err := joinArgs(args)
			if err != nil {
				return err
			}
			resolver := location.NewResolver(e.provider(), nil, nil, e.log)
			res, err := resolver.ResolveDetailed(cmd.Context(), place)
			if err != nil {
				return err
			}
			printf(cmd, "%s\t%s\n", res.Code, res.Source)
			return nil
		},
	}
}
