package backend

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Config is the opaque driver configuration as read from a workspace file.
type Config map[string]any

// Decode fills target, a pointer to a driver specific struct tagged with
// `mapstructure`, from cfg. Unknown keys are rejected.
func (cfg Config) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(map[string]any(cfg)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// String returns the value of key as string, or def if it is not set.
func (cfg Config) String(key, def string) string {
	if value, ok := cfg[key]; ok {
		if s, ok := value.(string); ok {
			return s
		}
	}

	return def
}

// Without returns a copy of cfg without the given keys.
func (cfg Config) Without(keys ...string) Config {
	copied := make(Config, len(cfg))
	for k, v := range cfg {
		copied[k] = v
	}
	for _, k := range keys {
		delete(copied, k)
	}

	return copied
}
