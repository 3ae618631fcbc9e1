package apidocs

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Env is a parsed process environment. A nil value marks a key that has
// been explicitly removed.
type Env struct {
	vars map[string]*string
}

func ParseEnv(envList []string) *Env {
	env := &Env{vars: make(map[string]*string, len(envList))}
	for _, e := range envList {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) != 2 || len(parts[0]) == 0 {
			continue
		}
		env.vars[parts[0]] = &parts[1]
	}
	return env
}

// ParseEnvEntry splits a single KEY=VALUE entry.
func ParseEnvEntry(entry string) (string, string, error) {
	key, value, ok := strings.Cut(entry, "=")
	if !ok || len(key) == 0 {
		return "", "", fmt.Errorf("invalid environment entry %q: expected KEY=VALUE", entry)
	}
	return key, value, nil
}

func (e *Env) LookupEnv(key string) (string, bool) {
	v, ok := e.vars[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

func (e *Env) Getenv(key string) string {
	v, _ := e.LookupEnv(key)
	return v
}

func (e *Env) Set(key, value string) {
	e.vars[key] = &value
}

func (e *Env) Unset(key string) {
	e.vars[key] = nil
}

// ToEnvList returns the environment sorted by key.
func (e *Env) ToEnvList() []string {
	keys := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	envList := make([]string, 0, len(keys))
	for _, k := range keys {
		envList = append(envList, fmt.Sprintf("%s=%s", k, *e.vars[k]))
	}
	return envList
}

func (e *Env) ExpandEnv(s string) string {
	return os.Expand(s, e.Getenv)
}

func (e *Env) Clone() *Env {
	return ParseEnv(e.ToEnvList())
}

// Merge returns a new Env where entries from envList override e.
func (e *Env) Merge(envList []string) *Env {
	combined := e.ToEnvList()
	combined = append(combined, envList...)
	return ParseEnv(combined)
}

type EnvChange struct {
	Key   string
	Value *string
}

// Diff reports what has to change in list to turn it into e. Removed keys
// have a nil Value.
func (e *Env) Diff(list []string) []EnvChange {
	o := ParseEnv(list)

	diff := []EnvChange{}
	for _, entry := range e.ToEnvList() {
		k, v, _ := strings.Cut(entry, "=")
		if ov, ok := o.LookupEnv(k); !ok || ov != v {
			diff = append(diff, EnvChange{Key: k, Value: &v})
		}
	}

	for _, entry := range o.ToEnvList() {
		k, _, _ := strings.Cut(entry, "=")
		if _, ok := e.LookupEnv(k); !ok {
			diff = append(diff, EnvChange{Key: k, Value: nil})
		}
	}

	sort.Slice(diff, func(i, j int) bool {
		return diff[i].Key < diff[j].Key
	})
	return diff
}
