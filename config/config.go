// Package config holds the security policy applied to RSA keys: the minimum
// modulus length and the admissible bit-length window of the public exponent.
//
// Values come from built-in defaults, an optional YAML file, and environment
// variables prefixed with SMARTCARDS_ (e.g. SMARTCARDS_RSA_MIN_MODULUS_BITS).
package config

import (
	"errors"
	"strings"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"github.com/spf13/viper"
)

var log = logger.GetGoI2PLogger()

const EnvPrefix = "SMARTCARDS"

const (
	keyMinModulusBits  = "rsa.min_modulus_bits"
	keyMinExponentBits = "rsa.min_exponent_bits"
	keyMaxExponentBits = "rsa.max_exponent_bits"
)

// ErrInvalidPolicy is returned when a policy is internally inconsistent.
var ErrInvalidPolicy = errors.New("config: invalid security policy")

// SecurityPolicy bounds the keys the rsa package accepts or reports on.
type SecurityPolicy struct {
	// MinModulusBits is the infimum of the modulus bit length. Shorter
	// private keys produce a finding.
	MinModulusBits int `mapstructure:"min_modulus_bits"`
	// MinExponentBits is the smallest public exponent bit length a private
	// key may have without a finding.
	MinExponentBits int `mapstructure:"min_exponent_bits"`
	// MaxExponentBits is the supremum of the public exponent bit length.
	// Public keys with a longer exponent are rejected.
	MaxExponentBits int `mapstructure:"max_exponent_bits"`
}

// Default returns the built-in policy.
func Default() SecurityPolicy {
	return SecurityPolicy{
		MinModulusBits:  2048,
		MinExponentBits: 17,
		MaxExponentBits: 32,
	}
}

// Validate checks that the bounds are usable.
func (p SecurityPolicy) Validate() error {
	switch {
	case p.MinModulusBits < 0:
		return oops.Code("invalid_policy").With("min_modulus_bits", p.MinModulusBits).
			Wrapf(ErrInvalidPolicy, "negative modulus infimum")
	case p.MinExponentBits < 2:
		return oops.Code("invalid_policy").With("min_exponent_bits", p.MinExponentBits).
			Wrapf(ErrInvalidPolicy, "exponent infimum below 2 bits")
	case p.MaxExponentBits < p.MinExponentBits:
		return oops.Code("invalid_policy").
			With("min_exponent_bits", p.MinExponentBits).
			With("max_exponent_bits", p.MaxExponentBits).
			Wrapf(ErrInvalidPolicy, "exponent supremum below infimum")
	}
	return nil
}

// SetDefaults registers the default policy on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(keyMinModulusBits, d.MinModulusBits)
	v.SetDefault(keyMinExponentBits, d.MinExponentBits)
	v.SetDefault(keyMaxExponentBits, d.MaxExponentBits)
}

// PolicyFromViper builds a SecurityPolicy from the current settings of v.
func PolicyFromViper(v *viper.Viper) SecurityPolicy {
	return SecurityPolicy{
		MinModulusBits:  v.GetInt(keyMinModulusBits),
		MinExponentBits: v.GetInt(keyMinExponentBits),
		MaxExponentBits: v.GetInt(keyMaxExponentBits),
	}
}

// Load reads the policy. path may be empty, in which case only defaults and
// environment variables apply.
func Load(path string) (SecurityPolicy, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.WithFields(logger.Fields{"path": path, "error": err.Error()}).Error("failed to read security policy")
			return SecurityPolicy{}, oops.Code("config_read").With("path", path).Wrapf(err, "read security policy")
		}
	}

	p := PolicyFromViper(v)
	if err := p.Validate(); err != nil {
		return SecurityPolicy{}, err
	}
	log.WithFields(logger.Fields{
		"min_modulus_bits":  p.MinModulusBits,
		"min_exponent_bits": p.MinExponentBits,
		"max_exponent_bits": p.MaxExponentBits,
	}).Debug("security policy loaded")
	return p, nil
}
