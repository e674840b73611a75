// Package config loads a set of named circuit breaker configurations
// from YAML, so a process can bootstrap a breaker Registry per service
// from a config file instead of from call-site Go code.
package config

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vnykmshr/armory/internal/breaker"
)

// NamedConfig pairs a service name with its validated breaker config.
type NamedConfig struct {
	Service string
	Config  breaker.CircuitBreakerConfig
}

// breakerDoc is the YAML shape for one breaker's configuration.
// Durations are plain strings (e.g. "3s") so the file stays human
// editable; they're parsed through time.ParseDuration.
type breakerDoc struct {
	Service                 string  `yaml:"service"`
	Scope                   string  `yaml:"scope"`
	FailureRateThreshold    float64 `yaml:"failureRateThreshold"`
	MinimumRequestThreshold uint64  `yaml:"minimumRequestThreshold"`
	TrialRequestInterval    string  `yaml:"trialRequestInterval"`
	CircuitOpenWindow       string  `yaml:"circuitOpenWindow"`
	CounterSlidingWindow    string  `yaml:"counterSlidingWindow"`
	CounterUpdateInterval   string  `yaml:"counterUpdateInterval"`
}

type registryDoc struct {
	Breakers []breakerDoc `yaml:"breakers"`
}

// LoadRegistryConfig parses a YAML document of breaker configs and
// validates each one through the same ConfigBuilder.Build() the
// programmatic API uses, so a malformed document surfaces the same
// invalid-argument errors a bad in-code configuration would.
func LoadRegistryConfig(r io.Reader) ([]NamedConfig, error) {
	var doc registryDoc
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("armory/config: parsing YAML: %w", err)
	}

	out := make([]NamedConfig, 0, len(doc.Breakers))
	for i, b := range doc.Breakers {
		cfg, err := toConfig(b)
		if err != nil {
			return nil, fmt.Errorf("armory/config: breakers[%d] (%s): %w", i, b.Service, err)
		}
		out = append(out, NamedConfig{Service: b.Service, Config: *cfg})
	}
	return out, nil
}

func toConfig(b breakerDoc) (*breaker.CircuitBreakerConfig, error) {
	builder := breaker.NewConfigBuilder(b.Service)

	switch b.Scope {
	case "", "service":
		builder.WithScope(breaker.ScopeService)
	case "per_method":
		builder.WithScope(breaker.ScopePerMethod)
	default:
		return nil, fmt.Errorf("unknown scope %q", b.Scope)
	}

	if b.FailureRateThreshold != 0 {
		builder.WithFailureRateThreshold(b.FailureRateThreshold)
	}
	if b.MinimumRequestThreshold != 0 {
		builder.WithMinimumRequestThreshold(b.MinimumRequestThreshold)
	}

	for _, d := range []struct {
		raw    string
		assign func(time.Duration)
	}{
		{b.TrialRequestInterval, builder.WithTrialRequestInterval},
		{b.CircuitOpenWindow, builder.WithCircuitOpenWindow},
		{b.CounterSlidingWindow, builder.WithCounterSlidingWindow},
		{b.CounterUpdateInterval, builder.WithCounterUpdateInterval},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		d.assign(parsed)
	}

	return builder.Build()
}
