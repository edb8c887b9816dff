package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var ErrMissingVar = errors.New("environment variable not set")

// Loads variables from the given .env files into the environment without overriding
// anything already set. Missing files are skipped.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		err := godotenv.Load(p)
		if errors.Is(err, fs.ErrNotExist) {
			log.WithField("path", p).Debug("no env file, using process environment")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}

	return nil
}

func GetEnviroVar(name string) (string, error) {
	v, found := os.LookupEnv(name)
	if !found {
		return "", fmt.Errorf("%w: %q must be specified", ErrMissingVar, name)
	}
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("environment variable %q must not be empty", name)
	}

	return v, nil
}

// Like GetEnviroVar followed by ParseEnviroVar, but returns fallback when the
// variable is not set at all.
func EnviroVarOr[T any](name string, fallback T) (T, error) {
	v, err := GetEnviroVar(name)
	if errors.Is(err, ErrMissingVar) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}

	return ParseEnviroVar[T](v)
}

// Parses an EnviroVar to the desired type
func ParseEnviroVar[T any](v string) (T, error) {
	var zero T

	switch any(zero).(type) {
	case string:
		return any(v).(T), nil
	case bool:
		val, err := strconv.ParseBool(v)
		if err != nil {
			return zero, fmt.Errorf("failed to parse %q as bool: %w", v, err)
		}

		return any(val).(T), nil
	case int:
		val, err := strconv.Atoi(v)
		if err != nil {
			return zero, fmt.Errorf("failed to parse %q as int: %w", v, err)
		}

		return any(val).(T), nil
	case int64:
		val, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return zero, fmt.Errorf("failed to parse %q as int64: %w", v, err)
		}

		return any(val).(T), nil
	case float64:
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return zero, fmt.Errorf("failed to parse %q as float64: %w", v, err)
		}

		return any(val).(T), nil
	case log.Level:
		val, err := log.ParseLevel(v)
		if err != nil {
			return zero, fmt.Errorf("failed to parse %q as log level: %w", v, err)
		}

		return any(val).(T), nil
	}

	return zero, fmt.Errorf("unsupported environment variable type %T", zero)
}
