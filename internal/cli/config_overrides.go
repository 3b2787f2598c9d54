package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spf13/pflag"

	"github.com/doralyyyyy/Restaurant-Platform/internal/config"
)

// applyConfigFlagOverrides copies explicitly set flags into v. Flags named
// after a config key apply directly; extra maps other flag names to keys.
func applyConfigFlagOverrides(cmd *cobra.Command, v *viper.Viper, extra map[string]string) {
	keys := make(map[string]string, len(extra))
	for _, opt := range config.GetConfigOptions() {
		keys[opt.Key] = opt.Key
	}
	for name, key := range extra {
		keys[name] = key
	}
	for name, key := range keys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			v.Set(key, flagValue(cmd.Flags(), f))
		}
	}
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) any {
	var (
		val any
		err error
	)
	switch f.Value.Type() {
	case "bool":
		val, err = fs.GetBool(f.Name)
	case "int":
		val, err = fs.GetInt(f.Name)
	case "int64":
		val, err = fs.GetInt64(f.Name)
	case "stringSlice":
		val, err = fs.GetStringSlice(f.Name)
	default:
		return f.Value.String()
	}
	if err != nil {
		return f.Value.String()
	}
	return val
}
