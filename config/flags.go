package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
)

// ApplyFlags copies the command-line flags the operator set explicitly onto
// c. Flags left at their default keep the file and environment values, so
// "-seed 0" still forces a random shuffle over a configured seed.
func (c *Config) ApplyFlags(fs *flag.FlagSet) error {
	var errs []error
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		var err error
		switch f.Name {
		case "debug":
			c.Debug, err = strconv.ParseBool(v)
		case "seed":
			c.Seed, err = strconv.ParseInt(v, 10, 64)
		case "log-format":
			c.LogFormat = v
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("flag -%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}
