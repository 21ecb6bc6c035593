package config

import "flag"

// RelayConfig holds the `ruida relay` subcommand's flags.
type RelayConfig struct {
	ControllerAddr string
	FrontendAddr   string
	BackendAddr    string
	DBPath         string
}

// ParseRelayConfig parses args (excluding the subcommand word itself) into a
// RelayConfig, using a package-level flag-variable style adapted to a
// FlagSet per subcommand.
func ParseRelayConfig(fs *flag.FlagSet, args []string) (*RelayConfig, error) {
	cfg := &RelayConfig{}
	fs.StringVar(&cfg.FrontendAddr, "listen", ":50200", "client-facing (frontend) UDP bind address")
	fs.StringVar(&cfg.BackendAddr, "backend", ":40200", "controller-facing (backend) UDP bind address")
	fs.StringVar(&cfg.DBPath, "db", "", "optional path to a job archive sqlite database")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		cfg.ControllerAddr = fs.Arg(0)
	}
	return cfg, nil
}

// UploadConfig holds the `ruida upload` subcommand's flags.
type UploadConfig struct {
	ControllerAddr string
	FilePath       string
	SourcePort     int
	TuningPath     string
	DBPath         string
}

// ParseUploadConfig parses args into an UploadConfig.
func ParseUploadConfig(fs *flag.FlagSet, args []string) (*UploadConfig, error) {
	cfg := &UploadConfig{}
	fs.IntVar(&cfg.SourcePort, "src-port", 40200, "local UDP source port")
	fs.StringVar(&cfg.TuningPath, "tuning", "", "optional path to a codec_tuning.json override file")
	fs.StringVar(&cfg.DBPath, "db", "", "optional path to a job archive sqlite database")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		cfg.ControllerAddr = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		cfg.FilePath = fs.Arg(1)
	}
	return cfg, nil
}

// ConvertConfig holds the `ruida rd-to-svg` / `hex-decode` subcommands' flags.
type ConvertConfig struct {
	InputPath     string
	OutputPath    string
	Lenient       bool
	WithChecksum  bool
	MarginMM      float64
}

// ParseConvertConfig parses args into a ConvertConfig.
func ParseConvertConfig(fs *flag.FlagSet, args []string) (*ConvertConfig, error) {
	cfg := &ConvertConfig{}
	fs.StringVar(&cfg.OutputPath, "o", "", "output path (default: stdout)")
	fs.BoolVar(&cfg.Lenient, "lenient", false, "skip unknown opcodes instead of aborting")
	fs.BoolVar(&cfg.WithChecksum, "with-checksum", false, "input has a leading 2-byte checksum prefix")
	fs.Float64Var(&cfg.MarginMM, "margin", 2.0, "SVG canvas margin in millimetres")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		cfg.InputPath = fs.Arg(0)
	}
	return cfg, nil
}
