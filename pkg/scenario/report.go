package scenario

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/newtron-network/ifconf/pkg/report"
)

// StepStatus represents the outcome of a step or scenario.
type StepStatus string

const (
	StepStatusPassed  StepStatus = "PASS"
	StepStatusFailed  StepStatus = "FAIL"
	StepStatusSkipped StepStatus = "SKIP"
	StepStatusError   StepStatus = "ERROR"
)

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name       string
	Device     string
	Status     StepStatus
	Duration   time.Duration
	Steps      []StepResult
	SkipReason string
}

// StepResult holds the result of a single step execution.
type StepResult struct {
	Name     string
	Action   StepAction
	Status   StepStatus
	Duration time.Duration
	Message  string

	// edit and commit
	ReplyStatus string
	Changes     *report.ChangeSet

	// read and edit: the interfaces as last read
	Records []report.InterfaceRecord
}

// computeOverallStatus derives a scenario status from its steps.
func computeOverallStatus(steps []StepResult) StepStatus {
	hasError := false
	for _, s := range steps {
		if s.Status == StepStatusError {
			hasError = true
		}
		if s.Status == StepStatusFailed {
			return StepStatusFailed
		}
	}
	if hasError {
		return StepStatusError
	}
	return StepStatusPassed
}

// ReportGenerator produces run reports from scenario results.
type ReportGenerator struct {
	Results []*ScenarioResult
}

// Summary writes a one-line-per-scenario summary.
func (g *ReportGenerator) Summary(w io.Writer) {
	passed := 0
	for _, r := range g.Results {
		note := r.SkipReason
		if note == "" {
			for _, s := range r.Steps {
				if s.Status != StepStatusPassed {
					note = fmt.Sprintf("%s: %s", s.Name, s.Message)
					break
				}
			}
		}
		if r.Status == StepStatusPassed {
			passed++
		}
		fmt.Fprintf(w, "  %-5s %-24s %s\n", r.Status, r.Name, note)
	}
	fmt.Fprintf(w, "%d/%d scenarios passed\n", passed, len(g.Results))
}

// WriteMarkdown writes a markdown report to the given path.
func (g *ReportGenerator) WriteMarkdown(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "# ifconf Report: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(f, "| Scenario | Device | Result | Duration | Note |")
	fmt.Fprintln(f, "|----------|--------|--------|----------|------|")
	for _, r := range g.Results {
		fmt.Fprintf(f, "| %s | %s | %s | %s | %s |\n",
			r.Name, r.Device, r.Status, r.Duration.Round(time.Millisecond), r.SkipReason)
	}

	hasFailures := false
	for _, r := range g.Results {
		for _, s := range r.Steps {
			if s.Status != StepStatusFailed && s.Status != StepStatusError {
				continue
			}
			if !hasFailures {
				fmt.Fprintf(f, "\n## Failures\n\n")
				hasFailures = true
			}
			fmt.Fprintf(f, "### %s\n", r.Name)
			fmt.Fprintf(f, "Step %s (%s): %s\n\n", s.Name, s.Action, s.Message)
		}
	}

	return nil
}

// WriteJUnit writes a JUnit XML report for CI integration.
func (g *ReportGenerator) WriteJUnit(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	suites := junitTestSuites{}
	for _, r := range g.Results {
		suite := junitTestSuite{
			Name: r.Name,
			Time: r.Duration.Seconds(),
		}

		if r.Status == StepStatusSkipped && r.SkipReason != "" {
			suite.Tests = 1
			suite.Skipped = 1
			suite.Cases = append(suite.Cases, junitTestCase{
				Name:      r.Name,
				ClassName: r.Name,
				Skipped:   &junitSkipped{Message: r.SkipReason},
			})
			suites.Suites = append(suites.Suites, suite)
			continue
		}

		for _, s := range r.Steps {
			suite.Tests++
			tc := junitTestCase{
				Name:      s.Name,
				ClassName: r.Name,
				Time:      s.Duration.Seconds(),
			}
			switch s.Status {
			case StepStatusFailed:
				suite.Failures++
				tc.Failure = &junitFailure{Message: s.Message, Type: string(s.Action)}
			case StepStatusSkipped:
				suite.Skipped++
				tc.Skipped = &junitSkipped{Message: s.Message}
			case StepStatusError:
				suite.Errors++
				tc.Error = &junitError{Message: s.Message, Type: string(s.Action)}
			}
			suite.Cases = append(suite.Cases, tc)
		}
		suites.Suites = append(suites.Suites, suite)
	}

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xml.Header), data...), 0o644)
}

// JUnit XML types

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Errors   int             `xml:"errors,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     float64         `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
	Error     *junitError   `xml:"error,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

type junitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}
