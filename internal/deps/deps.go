package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary the daemon relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, req.check())
	}
	return results
}

func (req Requirement) check() Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	switch {
	case status.Command == "":
		status.Detail = "command not configured"
	default:
		if _, err := exec.LookPath(status.Command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		} else {
			status.Available = true
		}
	}
	return status
}
