// Package configs reads the psm YAML profile.
package configs

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/ontanj/psm/ahe"
)

const DefaultProfile = "conf.yaml"
const TempleteProfile = `protocol:
  # modulus size of every generated key, at least 512; 2048 recommended
  security_bits: 2048
  # cryptosystem: paillier or dj
  scheme: paillier
  # queries a batch runs at once, 0 means use all cpus
  workers: 0

store:
  # leveldb directory holding named datasets
  path: "./psm-data"
  # cache size in MiB and open file handles
  cache: 16
  handles: 32

log:
  # debug, info, warn or error
  level: info
  # empty logs to stderr, otherwise a rotated file
  file: ""
`

// EnvPrefix prefixes environment overrides, e.g. PSM_PROTOCOL_SECURITY_BITS.
const EnvPrefix = "PSM"

var schemes = map[string]bool{"paillier": true, "dj": true}

type Protocol struct {
	SecurityBits int    `mapstructure:"security_bits" yaml:"security_bits"`
	Scheme       string `mapstructure:"scheme" yaml:"scheme"`
	Workers      int    `mapstructure:"workers" yaml:"workers"`
}

type Store struct {
	Path    string `mapstructure:"path" yaml:"path"`
	Cache   int    `mapstructure:"cache" yaml:"cache"`
	Handles int    `mapstructure:"handles" yaml:"handles"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

type Confile struct {
	Protocol Protocol `mapstructure:"protocol" yaml:"protocol"`
	Store    Store    `mapstructure:"store" yaml:"store"`
	Log      Log      `mapstructure:"log" yaml:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("protocol.security_bits", ahe.RecommendedKeyBits)
	v.SetDefault("protocol.scheme", "paillier")
	v.SetDefault("protocol.workers", 0)
	v.SetDefault("store.path", "./psm-data")
	v.SetDefault("store.cache", 16)
	v.SetDefault("store.handles", 32)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration with environment overrides.
func Default() (*Confile, error) {
	c := &Confile{}
	if err := newViper().Unmarshal(c); err != nil {
		return nil, errors.Errorf("[Unmarshal] %v", err)
	}
	return c, c.Validate()
}

// Parse reads the profile at fpath over the defaults and validates it.
func Parse(fpath string) (*Confile, error) {
	fstat, err := os.Stat(fpath)
	if err != nil {
		return nil, err
	}
	if fstat.IsDir() {
		return nil, errors.Errorf("the '%v' is not a file", fpath)
	}
	v := newViper()
	v.SetConfigFile(fpath)
	if ext := path.Ext(fpath); len(ext) > 1 {
		v.SetConfigType(ext[1:])
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Errorf("[ReadInConfig] %v", err)
	}
	c := &Confile{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Errorf("[Unmarshal] %v", err)
	}
	return c, c.Validate()
}

// Validate checks every field that has a restricted range.
func (c *Confile) Validate() error {
	if c.Protocol.SecurityBits < ahe.MinKeyBits {
		return errors.Errorf("'security_bits' must be at least %d, got %d", ahe.MinKeyBits, c.Protocol.SecurityBits)
	}
	if !schemes[c.Protocol.Scheme] {
		return errors.Errorf("unknown scheme '%s'", c.Protocol.Scheme)
	}
	if c.Protocol.Workers < 0 {
		return errors.Errorf("'workers' can not be negative")
	}
	if len(c.Store.Path) == 0 {
		return errors.New("'store.path' can not be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("invalid log level '%s'", c.Log.Level)
	}
	return nil
}

// WriteTemplate writes the commented default profile to fpath.
func WriteTemplate(fpath string) error {
	return os.WriteFile(fpath, []byte(TempleteProfile), 0o644)
}
