package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagFormat  = flag.String("format", "", "Output format: gltf, glb or obj")
	flagOut     = flag.String("out", "", "Output directory for converted files")
	flagWorkers = flag.Int("workers", 0, "Number of files converted in parallel")
	flagStrict  = flag.Bool("strict", false, "Reject dangling face indices and bad section ranges")
	flagAddr    = flag.String("addr", "", "Listen address for serve")
	flagLogFile = flag.String("log-file", "", "Also write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagFormat != "" {
		cfg.Convert.Format = *flagFormat
	}
	if *flagOut != "" {
		cfg.Convert.OutputDir = *flagOut
	}
	if *flagWorkers > 0 {
		cfg.Convert.Workers = *flagWorkers
	}
	if *flagStrict {
		cfg.Convert.Strict = true
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
