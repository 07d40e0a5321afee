package emdtree

import (
	"os"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/reconcile"
)

// ConfigPath is the default location of the user config.
const ConfigPath = "~/.emd.yaml"

// Config holds per-user defaults for writing containers.
type Config struct {
	Program string `json:"program,omitempty"`
	Author  string `json:"author,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Depth   string `json:"depth,omitempty"`
}

// homedirExpand is swapped out in tests.
var homedirExpand = homedir.Expand

// LoadConfig reads the YAML config at path, or at ConfigPath if path
// is empty.  A missing file yields the defaults.  EMD_AUTHOR and
// EMD_PROGRAM override the file.
func LoadConfig(fs afero.Fs, path string) (cfg Config, err error) {
	cfg = Config{Program: "emdtree", Mode: "write", Depth: "true"}
	if path == "" {
		path, err = homedirExpand(ConfigPath)
		if err != nil {
			return cfg, errors.Wrap(err, "expand config path")
		}
	}
	buf, err := afero.ReadFile(fs, path)
	switch {
	case os.IsNotExist(err):
		err = nil
	case err != nil:
		return cfg, errors.Wrapf(err, "read %s", path)
	default:
		err = yaml.Unmarshal(buf, &cfg)
		if err != nil {
			return cfg, errors.Wrapf(err, "parse %s", path)
		}
	}
	if s := os.Getenv("EMD_AUTHOR"); s != "" {
		cfg.Author = s
	}
	if s := os.Getenv("EMD_PROGRAM"); s != "" {
		cfg.Program = s
	}
	return
}

// Session is the authoring information stamped on new containers.
func (cfg Config) Session() emdio.Session {
	return emdio.Session{Program: cfg.Program, User: cfg.Author}
}

// Options turns the config into save options aimed at emdpath.
func (cfg Config) Options(emdpath string) (opts reconcile.Options, err error) {
	opts.Mode, err = reconcile.ParseMode(cfg.Mode)
	if err != nil {
		return
	}
	opts.Depth, err = emdio.ParseDepth(cfg.Depth)
	if err != nil {
		return
	}
	opts.EMDPath = emdpath
	opts.Session = cfg.Session()
	return
}
