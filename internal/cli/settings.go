package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that override settings,
// e.g. COORDSIM_CHAIRS or COORDSIM_IDLE_POLL.
const EnvPrefix = "COORDSIM"

// settingsResolver layers run settings as
// defaults < profile < environment < explicit flags.
//
// The caller seeds it with the defaults already overlaid by the profile;
// viper then prefers a flag only when the user set it, and the environment
// over the seed. The first conversion error is kept and later lookups are
// skipped.
type settingsResolver struct {
	v   *viper.Viper
	err error
}

func newSettingsResolver(flags *pflag.FlagSet, seed map[string]any) (*settingsResolver, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range seed {
		v.SetDefault(key, value)
		flag := flags.Lookup(key)
		if flag == nil {
			return nil, fmt.Errorf("no flag for setting %q", key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %q: %w", key, err)
		}
	}
	return &settingsResolver{v: v}, nil
}

func (r *settingsResolver) int(key string) int {
	if r.err != nil {
		return 0
	}
	n, err := cast.ToIntE(r.v.Get(key))
	if err != nil {
		r.err = fmt.Errorf("setting %s: %w", key, err)
	}
	return n
}

func (r *settingsResolver) duration(key string) time.Duration {
	if r.err != nil {
		return 0
	}
	d, err := cast.ToDurationE(r.v.Get(key))
	if err != nil {
		r.err = fmt.Errorf("setting %s: %w", key, err)
	}
	return d
}
