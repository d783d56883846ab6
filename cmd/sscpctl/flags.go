package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-sscp/go-sscp/client"
	"github.com/go-sscp/go-sscp/internal/config"
	"github.com/go-sscp/go-sscp/logger"
	"github.com/go-sscp/go-sscp/sscp"
	"github.com/go-sscp/go-sscp/vlist"
)

// globalFlags are the connection flags shared by every command talking to a controller.
// They override the values of the configuration file.
type globalFlags struct {
	configPath   string
	host         string
	port         int
	station      string
	username     string
	password     string
	replyTimeout time.Duration
	vlistPath    string
	logLevel     string
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&f.host, "host", "", "PLC host")
	pf.IntVar(&f.port, "port", 12346, "PLC SSCP TCP port")
	pf.StringVar(&f.station, "station", "0x01", "SSCP station address (hex)")
	pf.StringVarP(&f.username, "user", "u", "", "login user name")
	pf.StringVarP(&f.password, "password", "p", "", "login password")
	pf.DurationVar(&f.replyTimeout, "reply-timeout", 5*time.Second, "timeout for a complete reply")
	pf.StringVar(&f.vlistPath, "vlist", "", ".vlist file variables are resolved from by name")
	pf.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// settings loads the configuration file, if any, and applies the flags set on the command line.
func (f *globalFlags) settings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("host") {
		cfg.Controller.Host = f.host
	}
	if changed("port") {
		cfg.Controller.Port = f.port
	}
	if changed("station") {
		cfg.Controller.Station = f.station
	}
	if changed("user") {
		cfg.Controller.Username = f.username
	}
	if changed("password") {
		cfg.Controller.Password = f.password
	}
	if changed("reply-timeout") {
		cfg.Controller.ReplyTimeout = f.replyTimeout
	}
	if changed("vlist") {
		cfg.VList = f.vlistPath
	}
	if changed("log-level") || f.configPath == "" {
		cfg.Log.Level = f.logLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newLogger creates the logger of a command. Logs go to stderr, stdout is kept for results.
func newLogger(cfg *config.Config) logger.Logger {
	l := logger.NewSlogWriter(os.Stderr, logger.ParseLevel(cfg.Log.Level), false)
	logger.SetLogger(l)

	return l
}

func newClient(cfg *config.Config, l logger.Logger) (*client.Client, error) {
	connCfg, err := cfg.Controller.ConnectionConfig(l)
	if err != nil {
		return nil, err
	}

	return client.New(connCfg)
}

func loadCatalog(cfg *config.Config) (*vlist.Catalog, error) {
	if cfg.VList == "" {
		return nil, nil //nolint:nilnil
	}

	return vlist.LoadCatalog(cfg.VList)
}

// varFlags describe a variable by UID on the command line.
type varFlags struct {
	uid    uint32
	offset uint32
	length uint32
	typ    string
}

func (f *varFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint32Var(&f.uid, "uid", 0, "variable UID")
	cmd.Flags().Uint32Var(&f.offset, "offset", 0, "offset qualifier, 0 for none")
	cmd.Flags().Uint32Var(&f.length, "length", 1, "length qualifier")
	cmd.Flags().StringVarP(&f.typ, "type", "t", "", "variable type: BOOL, BYTE, WORD, INT, UINT, DINT, UDINT, LINT, REAL, LREAL")
}

// resolveVariable returns the variable named name, looked up in the configured variables then in
// the .vlist file. Without a name, the variable is described by the --uid and --type flags.
func resolveVariable(cmd *cobra.Command, cfg *config.Config, name string, f *varFlags) (sscp.Variable, error) {
	if name == "" {
		if !cmd.Flags().Changed("uid") {
			return sscp.Variable{}, errors.New("a variable name or --uid is required")
		}

		uid := f.uid
		vc := config.VariableConfig{Name: "uid", UID: &uid, Offset: f.offset, Length: f.length, Type: f.typ}

		return vc.Resolve(nil)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return sscp.Variable{}, err
	}

	for _, v := range cfg.Variables {
		if v.Name == name {
			return v.Resolve(cat)
		}
	}

	vc := config.VariableConfig{Name: name}

	return vc.Resolve(cat)
}
