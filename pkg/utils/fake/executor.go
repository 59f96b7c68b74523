package fake

import (
	"fmt"
	"strings"
	"sync"
)

// Result is the canned outcome of one command line.
type Result struct {
	Output string
	Err    error
}

// Executor answers commands from a table keyed by the full command line
// ("metastat -p -s set1"). Unknown commands fail as if the binary were
// missing.
type Executor struct {
	mu      sync.Mutex
	Results map[string]Result
	Calls   []string
}

func NewExecutor(results map[string]Result) *Executor {
	if results == nil {
		results = map[string]Result{}
	}
	return &Executor{Results: results}
}

// Set registers output for a command line.
func (e *Executor) Set(line, output string) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Results[line] = Result{Output: output}
	return e
}

// Fail registers a failure for a command line.
func (e *Executor) Fail(line string, err error) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Results[line] = Result{Err: err}
	return e
}

func (e *Executor) Execute(cmd string, args []string) (string, error) {
	line := strings.Join(append([]string{cmd}, args...), " ")

	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = append(e.Calls, line)
	res, ok := e.Results[line]
	if !ok {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", cmd)
	}
	return res.Output, res.Err
}

// Called reports whether the command line was run.
func (e *Executor) Called(line string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.Calls {
		if c == line {
			return true
		}
	}
	return false
}
