package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v6"
)

// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
// that embeds EnvConfig.
var ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the config was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			if ev := v.Field(i); ev.CanAddr() {
				return ev.Addr().Interface().(*EnvConfig), nil
			}
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads configuration values from environment variables into the provided struct.
// The struct must embed EnvConfig and use `env`, `envDefault` and `envPrefix` tags.
//
// Variables are looked up from the most to the least specific namespace: for the
// namespace "ISUPIPE_USERSVC" and the tag "LOG_LEVEL", ISUPIPE_USERSVC_LOG_LEVEL
// wins over ISUPIPE_LOG_LEVEL, which wins over LOG_LEVEL.
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	//nolint:exhaustruct
	if err := env.Parse(cfg, env.Options{
		Environment: namespacedEnvironment(namespace, os.Environ()),
	}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// namespacedEnvironment flattens environ into a single map keyed without namespace.
// Later (more specific) namespaces overwrite earlier ones.
func namespacedEnvironment(namespace string, environ []string) map[string]string {
	var nsParts []string
	if namespace != "" {
		nsParts = strings.Split(namespace, "_")
	}

	environment := make(map[string]string, len(environ))

	for i := 0; i <= len(nsParts); i++ {
		var prefix string
		if i > 0 {
			prefix = strings.Join(nsParts[:i], "_") + "_"
		}

		for _, kv := range environ {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || !strings.HasPrefix(key, prefix) {
				continue
			}

			environment[strings.TrimPrefix(key, prefix)] = value
		}
	}

	return environment
}
