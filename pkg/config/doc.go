/*
Package config loads storectl's runtime configuration.

Configuration is a YAML file unmarshaled with gopkg.in/yaml.v3, the same
library and tag convention the teacher CLI uses for its resource
manifests. Five fields can be overridden from the command line (log
level, log format, data directory, storage backend, metrics address);
those cobra persistent flags take precedence over the file.

	cfg, err := config.Load("storectl.yaml")
	cfg.ApplyFlags(cmd)
*/
package config
