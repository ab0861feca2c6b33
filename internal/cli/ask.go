package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wayfarer/internal/ai"
	"wayfarer/internal/maps"
	"wayfarer/internal/modules/booking"
	"wayfarer/internal/modules/format"
	"wayfarer/internal/modules/intent"
	"wayfarer/internal/modules/location"
	"wayfarer/internal/modules/provider"
	"wayfarer/internal/service/assistant"
	"wayfarer/internal/types"
)

func (e *env) provider() *provider.Client {
	return provider.New(provider.Config{
		BaseURL:        e.cfg.Provider.BaseURL,
		ClientID:       e.cfg.Provider.ClientID,
		ClientSecret:   e.cfg.Provider.ClientSecret,
		TicketingDelay: e.cfg.Provider.TicketingDelay,
		Timeout:        e.cfg.Provider.Timeout,
	}, e.log)
}

func newAskCmd(e *env) *cobra.Command {
	var (
		prior     []string
		firstTurn bool
		trail     bool
	)
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Run one message through the full assistant",
		Long: `ask answers a single message the way the API would, without persisting
anything. Unless --first is given the message is treated as a follow-up to
the greeting, so it is routed instead of greeted.`,
		Example: `  wayfarer ask "Find flights from New York to London on June 15th"
  wayfarer ask --prior "I'm going to Rome" "what should I see there?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := joinArgs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			generator, closeGenerator, err := ai.New(ctx, e.cfg.AI, e.log)
			if err != nil {
				return err
			}
			defer closeGenerator()

			client := e.provider()
			opts := assistant.Options{
				Classifier: intent.NewClassifier(intent.DefaultRules),
				Resolver:   location.NewResolver(client, nil, nil, e.log),
				Provider:   client,
				Bookings:   booking.NewService(booking.NewMemoryStore(), booking.NewMemoryOfferCache(), client, e.log),
				Generator:  generator,
				Formatter:  format.New(e.log),
				Log:        e.log,
				Threshold:  e.cfg.Assistant.IntentThreshold,
				Location:   e.cfg.Assistant.Location(),
			}
			if e.cfg.Maps.APIKey != "" {
				places, err := maps.NewPlacesService(e.cfg.Maps.APIKey, e.log)
				if err != nil {
					return err
				}
				opts.Places = places
			}

			reply := assistant.New(opts).Respond(ctx, assistant.Request{
				ConversationID: uuid.New(),
				OwnerID:        "cli",
				History:        askHistory(prior, text, firstTurn, time.Now()),
			})
			printf(cmd, "%s\n", reply.Text)
			if trail {
				states := make([]string, len(reply.Trail))
				for i, s := range reply.Trail {
					states[i] = string(s)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "trail: %s\n", strings.Join(states, " -> "))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&prior, "prior", nil, "earlier user message (repeatable)")
	cmd.Flags().BoolVar(&firstTurn, "first", false, "treat the message as the opening turn")
	cmd.Flags().BoolVar(&trail, "trail", false, "print the state trail to stderr")
	return cmd
}

// askHistory lays out a synthetic conversation ending with text.
func askHistory(prior []string, text string, firstTurn bool, now time.Time) []types.Turn {
	var history []types.Turn
	at := now.Add(-time.Duration(len(prior)+2) * time.Second)
	add := func(role types.Role, content string) {
		at = at.Add(time.Second)
		history = append(history, types.Turn{Role: role, Content: content, CreatedAt: at})
	}
	if !firstTurn {
		add(types.RoleAssistant, assistant.GreetingReply)
	}
	for _, p := range prior {
		add(types.RoleUser, p)
	}
	add(types.RoleUser, text)
	return history
}
