package provision

import (
	"fmt"
	"strings"
)

// Kind is the package catalog a name belongs to.
type Kind int

const (
	// KindFormula is a command-line tool package.
	KindFormula Kind = iota
	// KindCask is a GUI application package.
	KindCask
)

// String returns the catalog name.
func (k Kind) String() string {
	switch k {
	case KindFormula:
		return "formula"
	case KindCask:
		return "cask"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of processing a single package.
type Outcome int

const (
	// OutcomeAlreadyPresent means the package was installed before the run touched it.
	OutcomeAlreadyPresent Outcome = iota
	// OutcomeInstalled means the package was installed by this run.
	OutcomeInstalled
	// OutcomeFailed means the install attempt failed.
	OutcomeFailed
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyPresent:
		return "already present"
	case OutcomeInstalled:
		return "installed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result records what happened to one package.
type Result struct {
	// Name is the package name as listed in the manifest.
	Name string
	// Kind is the catalog the package was installed from.
	Kind Kind
	// Outcome is the final state of the package.
	Outcome Outcome
	// Err is the install failure, set only for OutcomeFailed.
	Err error
}

// IsBlank reports whether a package name is empty once whitespace is removed.
// Blank names are never dispatched to the package manager.
func IsBlank(name string) bool {
	return strings.TrimSpace(name) == ""
}

// Summary counts outcomes over a set of results.
type Summary struct {
	AlreadyPresent int
	Installed      int
	Failed         int
	// FailedNames lists failed packages in processing order.
	FailedNames []string
}

// Summarize folds results into a Summary.
func Summarize(results []Result) Summary {
	var s Summary

	for _, r := range results {
		switch r.Outcome {
		case OutcomeAlreadyPresent:
			s.AlreadyPresent++
		case OutcomeInstalled:
			s.Installed++
		case OutcomeFailed:
			s.Failed++
			s.FailedNames = append(s.FailedNames, r.Name)
		}
	}

	return s
}

// Total returns the number of processed packages.
func (s Summary) Total() int {
	return s.AlreadyPresent + s.Installed + s.Failed
}
