package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvBool ports common/config.py's env_bool: case-insensitive
// {true,1,yes,on} / {false,0,no,off} tokens, defaulting on anything else
// (including an unset variable). Implemented directly against os.Getenv
// rather than viper's own bool coercion, since viper's cast rules do not
// match this exact truthy/falsy token set.
func EnvBool(name string, def bool) bool {
	val, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return def
	}
}

// EnvInt ports env_int: the raw string parsed as a base-10 integer,
// defaulting on an unset or unparseable value.
func EnvInt(name string, def int) int {
	val, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

// EnvList ports env_list: sep-separated values with surrounding whitespace
// trimmed and empty items dropped. An unset variable yields def.
func EnvList(name, sep string, def []string) []string {
	val, ok := os.LookupEnv(name)
	if !ok {
		if def == nil {
			return []string{}
		}
		return def
	}
	var out []string
	for _, item := range strings.Split(val, sep) {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
