// Package config layers climalight settings from a TOML file, CLIMALIGHT_*
// environment variables and command-line flags, and watches the file for
// changes that can be applied without a restart.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/climalight/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every `env` tag.
const EnvPrefix = "CLIMALIGHT_"

var durationType = reflect.TypeOf(time.Duration(0))

// LoadConfig fills opts, a pointer to a struct, from its `toml` and `env`
// tags. Precedence is flags > environment > file. Fields whose flag was set
// on cmd are left alone; cmd may be nil. The file path is read from a string
// field named Config; a missing file is not an error.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	skip := changedFlags(cmd)

	if path := configPath(v); path != "" {
		doc, err := readTOML(path)
		if err != nil {
			return err
		}
		if doc != nil {
			eachField(v, skip, "toml", func(field reflect.Value, key string) error {
				if value := lookup(doc, key); value != nil {
					assign(field, value)
				}
				return nil
			})
		}
	}

	return eachField(v, skip, "env", func(field reflect.Value, key string) error {
		raw := os.Getenv(EnvPrefix + key)
		if raw == "" {
			return nil
		}
		if err := parseInto(field, raw); err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		return nil
	})
}

func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := make(map[string]bool)
	if cmd == nil {
		return changed
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			changed[f.Name] = true
		}
	})
	return changed
}

func configPath(v reflect.Value) string {
	field := v.FieldByName("Config")
	if !field.IsValid() || field.Kind() != reflect.String {
		return ""
	}
	return field.String()
}

// readTOML returns nil without error when the file does not exist.
func readTOML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
	}
	return doc, nil
}

func eachField(v reflect.Value, skip map[string]bool, tag string, fn func(reflect.Value, string) error) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		key := sf.Tag.Get(tag)
		if key == "" || skip[flagName(sf.Name)] || !v.Field(i).CanSet() {
			continue
		}
		if err := fn(v.Field(i), key); err != nil {
			return err
		}
	}
	return nil
}

// flagName maps a field name to the kebab-case flag humacli generates for
// it: "ReportInterval" -> "report-interval", "MQTTBroker" -> "mqtt-broker".
func flagName(fieldName string) string {
	runes := []rune(fieldName)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// lookup resolves a dotted key such as "mqtt.broker" in a decoded document.
func lookup(doc map[string]any, key string) any {
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := doc[part].(map[string]any)
		if !ok {
			return nil
		}
		doc = next
	}
	return doc[parts[len(parts)-1]]
}

// assign stores a decoded TOML value. Values of the wrong type are ignored
// so a typo in the file leaves the default in place.
func assign(field reflect.Value, value any) {
	if field.Type() == durationType {
		switch x := value.(type) {
		case string:
			if d, err := time.ParseDuration(x); err == nil {
				field.SetInt(int64(d))
			}
		case int64:
			field.SetInt(int64(time.Duration(x) * time.Millisecond))
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if n, ok := value.(int64); ok {
			field.SetInt(n)
		}
	case reflect.Float64:
		switch x := value.(type) {
		case float64:
			field.SetFloat(x)
		case int64:
			field.SetFloat(float64(x))
		}
	case reflect.Slice:
		items, ok := value.([]any)
		if !ok || field.Type().Elem().Kind() != reflect.String {
			return
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, isStr := item.(string); isStr {
				out = append(out, s)
			}
		}
		field.Set(reflect.ValueOf(out))
	}
}

// parseInto stores an environment value. Durations accept Go syntax or bare
// milliseconds; string slices are comma separated.
func parseInto(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			ms, msErr := strconv.ParseInt(raw, 10, 64)
			if msErr != nil {
				return err
			}
			d = time.Duration(ms) * time.Millisecond
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	}
	return nil
}

// LoadLoggingConfig is ReadLoggingConfig with errors replaced by defaults.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg, err := ReadLoggingConfig(configPath)
	if err != nil {
		return defaultLoggingConfig()
	}
	return cfg
}

// ReadLoggingConfig parses the [logging] table. Keys other than level and
// format are per-module levels (button, command, led, sensor, report, mqtt,
// nats, api). A missing table yields the defaults; an unreadable or invalid
// file is an error.
func ReadLoggingConfig(configPath string) (logging.Config, error) {
	cfg := defaultLoggingConfig()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	var doc struct {
		Logging map[string]any `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	for key, value := range doc.Logging {
		level, ok := value.(string)
		if !ok {
			continue
		}
		switch key {
		case "level":
			cfg.Level = level
		case "format":
			cfg.Format = level
		default:
			cfg.Modules[key] = level
		}
	}
	return cfg, nil
}

func defaultLoggingConfig() logging.Config {
	return logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}
}
