package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wayfarer/internal/modules/extract"
)

type extraction struct {
	Kind    string            `yaml:"kind"`
	Fields  map[string]any    `yaml:"fields"`
	Dates   map[string]string `yaml:"normalized_dates,omitempty"`
	Missing []string          `yaml:"missing,omitempty"`
}

func newExtractCmd(e *env) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "extract <message>",
		Short: "Show the parameters read from a message",
		Example: `  wayfarer extract "flights from Paris to Rome on 3rd March for two adults"
  wayfarer extract --kind hotel "hotel in Lisbon from May 2 to May 5"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := joinArgs(args)
			if err != nil {
				return err
			}
			out, err := runExtract(kind, text, time.Now().In(e.cfg.Assistant.Location()))
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "flight", "flight, hotel, place or booking")
	return cmd
}

func runExtract(kind, text string, now time.Time) (extraction, error) {
	out := extraction{Kind: kind, Dates: map[string]string{}}
	switch kind {
	case "flight":
		p := extract.ExtractFlightParams(text)
		out.Fields = map[string]any{
			"origin":      p.Origin,
			"destination": p.Destination,
			"depart_date": p.DepartDate,
			"return_date": p.ReturnDate,
			"adults":      p.Adults,
			"cabin_class": p.CabinClass,
		}
		normalizeInto(out.Dates, "depart_date", p.DepartDate, now)
		normalizeInto(out.Dates, "return_date", p.ReturnDate, now)
		out.Missing = p.Missing()
	case "hotel":
		p := extract.ExtractHotelParams(text)
		out.Fields = map[string]any{
			"city":      p.City,
			"check_in":  p.CheckIn,
			"check_out": p.CheckOut,
			"nights":    p.Nights,
			"adults":    p.Adults,
		}
		normalizeInto(out.Dates, "check_in", p.CheckIn, now)
		normalizeInto(out.Dates, "check_out", p.CheckOut, now)
		out.Missing = p.Missing()
	case "place":
		out.Fields = map[string]any{
			"place": extract.ExtractPlace(text),
			"days":  extract.ExtractDays(text),
		}
	case "booking":
		r := extract.ExtractBookingRequest(text)
		out.Fields = map[string]any{
			"option":     r.Option,
			"first_name": r.FirstName,
			"last_name":  r.LastName,
			"email":      r.Email,
		}
		out.Missing = r.Missing()
	default:
		return extraction{}, fmt.Errorf("unknown kind %q", kind)
	}
	return out, nil
}

// normalizeInto records the normalized form of raw, or why it failed.
func normalizeInto(dst map[string]string, key, raw string, now time.Time) {
	if raw == "" {
		return
	}
	d, err := extract.NormalizeDate(raw, now)
	if err != nil {
		dst[key] = "unparsable: " + raw
		return
	}
	dst[key] = d
}
