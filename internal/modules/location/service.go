// README: Resolver maps free-text place names to 3-letter location codes through cache, provider, table and synthesis tiers.
package location

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"wayfarer/internal/modules/provider"
)

// Lookup is the provider capability the resolver needs.
type Lookup interface {
	LookupLocation(ctx context.Context, keyword string) ([]provider.Location, error)
}

// Resolver is safe for concurrent use. Cache and lookup may be nil.
type Resolver struct {
	lookup Lookup
	cache  Cache
	table  *Table
	log    *zap.Logger
}

func NewResolver(lookup Lookup, cache Cache, table *Table, log *zap.Logger) *Resolver {
	if table == nil {
		table = DefaultTable
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{lookup: lookup, cache: cache, table: table, log: log.Named("location")}
}

// Resolve returns a valid code for place or ErrResolution.
func (r *Resolver) Resolve(ctx context.Context, place string) (string, error) {
	res, err := r.ResolveDetailed(ctx, place)
	return res.Code, err
}

// ResolveDetailed is Resolve plus the tier that answered.
func (r *Resolver) ResolveDetailed(ctx context.Context, place string) (Resolution, error) {
	place = strings.TrimSpace(place)
	res := Resolution{Place: place}
	if place == "" {
		return res, ErrResolution
	}

	if r.cache != nil {
		code, ok, err := r.cache.Get(ctx, place)
		if err != nil {
			r.log.Warn("location cache read failed", zap.String("place", place), zap.Error(err))
		} else if ok && ValidCode(code) {
			res.Code, res.Source = code, SourceCache
			return res, nil
		}
	}

	if code, ok := r.fromProvider(ctx, place); ok {
		res.Code, res.Source = code, SourceProvider
		r.remember(ctx, place, code)
		return res, nil
	}

	if code, ok := r.table.Lookup(place); ok {
		res.Code, res.Source = code, SourceTable
		r.remember(ctx, place, code)
		return res, nil
	}

	if code, ok := Synthesize(place); ok {
		r.log.Info("synthesized location code", zap.String("place", place), zap.String("code", code))
		res.Code, res.Source = code, SourceSynthesized
		return res, nil
	}
	return res, ErrResolution
}

func (r *Resolver) fromProvider(ctx context.Context, place string) (string, bool) {
	if r.lookup == nil {
		return "", false
	}
	locs, err := r.lookup.LookupLocation(ctx, place)
	if err != nil {
		if errors.Is(err, provider.ErrNotInitialized) {
			r.log.Debug("provider not initialized; using table", zap.String("place", place))
		} else {
			r.log.Warn("provider location lookup failed", zap.String("place", place), zap.Error(err))
		}
		return "", false
	}
	return pickCode(locs)
}

// pickCode prefers a valid city code over a valid airport code.
func pickCode(locs []provider.Location) (string, bool) {
	airport := ""
	for _, l := range locs {
		if !ValidCode(l.IataCode) {
			continue
		}
		switch l.SubType {
		case provider.SubTypeCity:
			return l.IataCode, true
		case provider.SubTypeAirport:
			if airport == "" {
				airport = l.IataCode
			}
		}
	}
	return airport, airport != ""
}

func (r *Resolver) remember(ctx context.Context, place, code string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, place, code); err != nil {
		r.log.Warn("location cache write failed", zap.String("place", place), zap.Error(err))
	}
}

// Synthesize builds a best-effort code from the letters of place, padded
// with X. It is frequently wrong and exists so a request can still be
// attempted. ok is false when place has no ASCII letters.
func Synthesize(place string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(place) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
			if b.Len() == 3 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	code := b.String()
	for len(code) < 3 {
		code += "X"
	}
	return code, true
}
