package config

import (
	"context"
	"fmt"
	"strings"
)

// ParamGetter reads a single decrypted parameter value.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ResolveSecrets fills secrets that were not provided through the environment
// from the parameter store under ParamPrefix. Values already set win.
func ResolveSecrets(ctx context.Context, cfg *Config, params ParamGetter) error {
	prefix := strings.TrimRight(strings.TrimSpace(cfg.ParamPrefix), "/")
	if prefix == "" || params == nil {
		return nil
	}
	secrets := []struct {
		name string
		dst  *string
	}{
		{"/provider/client_id", &cfg.Provider.ClientID},
		{"/provider/client_secret", &cfg.Provider.ClientSecret},
		{"/ai/gemini_key", &cfg.AI.GeminiKey},
		{"/ai/openai_key", &cfg.AI.OpenAIKey},
		{"/maps/api_key", &cfg.Maps.APIKey},
	}
	for _, s := range secrets {
		if *s.dst != "" {
			continue
		}
		v, err := params.GetParameter(ctx, prefix+s.name)
		if err != nil {
			return fmt.Errorf("config: load %s: %w", prefix+s.name, err)
		}
		*s.dst = strings.TrimSpace(v)
	}
	return nil
}
