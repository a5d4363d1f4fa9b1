package toolchain

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/shlex"
)

// Command is a single subprocess invocation. Env holds overrides layered on
// top of the parent environment; the parent process environment is never modified.
type Command struct {
	Name string
	Args []string
	Env  map[string]string
	Dir  string
}

// ExitError reports a subprocess that ran and exited with a non-zero code.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

// Parse splits a shell-style command line such as "make -j4" into a Command.
func Parse(line string) (Command, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("failed to parse command %q: %w", line, err)
	}
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	return Command{Name: fields[0], Args: fields[1:]}, nil
}

// WithEnv returns a copy of c with the overrides added to its environment.
func (c Command) WithEnv(overrides map[string]string) Command {
	env := make(map[string]string, len(c.Env)+len(overrides))
	maps.Copy(env, c.Env)
	maps.Copy(env, overrides)
	c.Env = env
	c.Args = slices.Clone(c.Args)
	return c
}

// String renders the command line with its environment overrides, for logging.
func (c Command) String() string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(c.Env)) {
		fmt.Fprintf(&b, "%s=%s ", k, quote(c.Env[k]))
	}
	b.WriteString(quote(c.Name))
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(quote(a))
	}
	return b.String()
}

// MergeEnv layers overrides on base (KEY=VALUE form). Overridden keys keep
// their position; new keys are appended in sorted order.
func MergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if v, ok := overrides[k]; ok {
			if !seen[k] {
				out = append(out, k+"="+v)
				seen[k] = true
			}
			continue
		}
		out = append(out, kv)
	}
	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		if !seen[k] {
			out = append(out, k+"="+overrides[k])
		}
	}
	return out
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n'\"\\$") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}
