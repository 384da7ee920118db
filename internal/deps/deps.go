package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external program whose presence changes what the
// installation can be configured to use.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement. Path is the resolved
// executable when Available is set; Detail explains why it is not otherwise.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Grep is probed to choose the forking search algorithm.
var Grep = Requirement{Name: "grep", Command: "grep", Description: "Enables the forking search algorithm", Optional: true}

// RCS lists the revision control tools the wrapping store backend shells out to.
var RCS = []Requirement{
	{Name: "ci", Command: "ci", Description: "RCS check-in for the wrapping store", Optional: true},
	{Name: "co", Command: "co", Description: "RCS check-out for the wrapping store", Optional: true},
	{Name: "rlog", Command: "rlog", Description: "RCS history for the wrapping store", Optional: true},
}

// Check resolves one requirement on PATH.
func Check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}

// CheckBinaries checks every requirement, keeping their order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Check(req)
	}
	return results
}

// AllAvailable reports whether every status is available. An empty list is
// not considered available.
func AllAvailable(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Available {
			return false
		}
	}
	return len(statuses) > 0
}
