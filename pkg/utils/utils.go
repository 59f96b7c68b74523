package utils

import (
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
)

// MatchesIgnoredCase checks if the item of string slice fully match the key with case-insensitive
func MatchesIgnoredCase(s []string, k string) bool {
	for _, e := range s {
		if strings.EqualFold(e, k) {
			return true
		}
	}
	return false
}

// SplitLines splits command output into its non-empty lines.
func SplitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// SplitCommandLine splits a configured command line such as "metastat -p"
// into the command and its arguments.
func SplitCommandLine(line string) (string, []string, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to split command line %q", line)
	}
	if len(fields) == 0 {
		return "", nil, errors.Errorf("empty command line")
	}
	return fields[0], fields[1:], nil
}

// RunCommandLine runs a configured command line and returns its stdout lines.
func RunCommandLine(executor Executor, line string, extraArgs ...string) ([]string, error) {
	cmd, args, err := SplitCommandLine(line)
	if err != nil {
		return nil, err
	}
	args = append(args, extraArgs...)
	output, err := executor.Execute(cmd, args)
	if err != nil {
		return nil, err
	}
	return SplitLines(output), nil
}
