package tmpsi

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/niclabs/tmpsi/gbf"
	"github.com/niclabs/tmpsi/logging"
)

// DefaultKeyBits is the default Paillier modulus size.
const DefaultKeyBits = 1024

// minKeyBits is the smallest modulus GenerateKeyPair accepts.
const minKeyBits = 64

// Config holds the knobs of a Session. The zero value selects every default.
type Config struct {
	// KeyBits is the modulus size of the generated key pair.
	KeyBits int `yaml:"key_bits" json:"key_bits"`
	// Lambda is the bit length of filter slot values. It must cover a
	// ciphertext, that is 2·KeyBits. Zero selects the larger of
	// gbf.DefaultLambda and 2·KeyBits.
	Lambda int `yaml:"lambda" json:"lambda"`
	// Threshold is the number of contributors that must hold an element in
	// a threshold round. Zero selects ThresholdFor(t).
	Threshold int `yaml:"threshold" json:"threshold"`
	// Workers bounds the goroutines used to build filters and evaluate
	// elements.
	Workers int `yaml:"workers" json:"workers"`
	// CacheFilters keeps the filters of identified parties across rounds.
	CacheFilters bool `yaml:"cache_filters" json:"cache_filters"`

	// Logger receives round diagnostics. Defaults to slog.Default().
	Logger logging.Logger `yaml:"-" json:"-"`
	// RandSource seeds key generation and the worker generators. Defaults
	// to crypto/rand.
	RandSource io.Reader `yaml:"-" json:"-"`
}

// Validate checks that every knob is in range. Zero values are accepted.
func (c *Config) Validate() error {
	if c.KeyBits != 0 && c.KeyBits < minKeyBits {
		return fmt.Errorf("%w: key_bits must be at least %d, but it is %d", ErrInvalidArgument, minKeyBits, c.KeyBits)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("%w: lambda must not be negative, but it is %d", ErrInvalidArgument, c.Lambda)
	}
	if c.Lambda != 0 {
		keyBits := c.KeyBits
		if keyBits == 0 {
			keyBits = DefaultKeyBits
		}
		if err := checkLambda(c.Lambda, 2*keyBits); err != nil {
			return err
		}
	}
	if c.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative, but it is %d", ErrInvalidArgument, c.Threshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, but it is %d", ErrInvalidArgument, c.Workers)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.KeyBits == 0 {
		c.KeyBits = DefaultKeyBits
	}
	if c.Lambda == 0 {
		c.Lambda = gbf.DefaultLambda
		if 2*c.KeyBits > c.Lambda {
			c.Lambda = 2 * c.KeyBits
		}
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Logger == nil {
		c.Logger = logging.New(nil)
	}
	if c.RandSource == nil {
		c.RandSource = rand.Reader
	}
	return c
}

// checkLambda rejects slot values shorter than a ciphertext of ctBits bits.
func checkLambda(lambda, ctBits int) error {
	if lambda < ctBits {
		return fmt.Errorf("%w: lambda must be at least %d bits to cover a ciphertext, but it is %d", ErrInvalidArgument, ctBits, lambda)
	}
	return nil
}

// LoadConfig reads a Config from a YAML file. JSON files are accepted too.
// Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tmpsi: read config: %w", err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("tmpsi: unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
