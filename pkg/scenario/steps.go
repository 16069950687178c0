package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/newtron-network/ifconf/pkg/audit"
	"github.com/newtron-network/ifconf/pkg/cli"
	"github.com/newtron-network/ifconf/pkg/device"
	"github.com/newtron-network/ifconf/pkg/report"
	"github.com/newtron-network/ifconf/pkg/util"
)

// stepExecutor executes a single step and returns output.
type stepExecutor interface {
	Execute(ctx context.Context, r *Runner, step *Step) *StepOutput
}

// StepOutput is the return value from every executor. Err is set only for
// fatal errors, which stop the run.
type StepOutput struct {
	Result *StepResult
	Err    error
}

// executors maps each StepAction to its executor implementation.
var executors = map[StepAction]stepExecutor{
	ActionRead:     &readExecutor{},
	ActionValidate: &validateExecutor{},
	ActionEdit:     &editExecutor{},
	ActionCommit:   &commitExecutor{},
}

func passOutput(msg string) *StepOutput {
	return &StepOutput{Result: &StepResult{Status: StepStatusPassed, Message: msg}}
}

func failOutput(msg string) *StepOutput {
	return &StepOutput{Result: &StepResult{Status: StepStatusFailed, Message: msg}}
}

func errorOutput(err error) *StepOutput {
	return &StepOutput{
		Result: &StepResult{Status: StepStatusError, Message: err.Error()},
		Err:    err,
	}
}

// ============================================================================
// readExecutor
// ============================================================================

type readExecutor struct{}

func (e *readExecutor) Execute(ctx context.Context, r *Runner, step *Step) *StepOutput {
	filter, err := r.filter(step)
	if err != nil {
		return errorOutput(err)
	}
	ds := r.datastore(step)

	var cr *device.ConfigReply
	err = device.WithSession(ctx, r.endpoint, r.Options, func(s *device.Session) error {
		var err error
		cr, err = s.ReadConfigReply(ctx, ds, filter)
		return err
	})
	if err != nil {
		return errorOutput(err)
	}
	fmt.Fprintln(r.Out, "RESPONSE: OK")

	records, err := r.show(fmt.Sprintf("CONFIGURATION %s", ds), "current", cr)
	if err != nil {
		return errorOutput(err)
	}
	r.remember(ds, records)

	out := passOutput(fmt.Sprintf("%d interface(s)", len(records)))
	out.Result.Records = records
	return out
}

// ============================================================================
// validateExecutor
// ============================================================================

type validateExecutor struct{}

func (e *validateExecutor) Execute(ctx context.Context, r *Runner, step *Step) *StepOutput {
	ds := r.datastore(step)
	if ds == "startup" {
		return errorOutput(util.NewPreconditionError("validate", r.endpoint.Label(), "validatable datastore", "startup cannot be validated"))
	}

	var valid bool
	err := device.WithSession(ctx, r.endpoint, r.Options, func(s *device.Session) error {
		var err error
		valid, err = s.Validate(ctx, ds)
		return err
	})
	if err != nil {
		return errorOutput(err)
	}
	if !valid {
		fmt.Fprintln(r.Out, "VALIDATION: "+cli.Red("FAILED"))
		return failOutput(fmt.Sprintf("device rejected validation of %s", ds))
	}
	fmt.Fprintln(r.Out, "VALIDATION: "+cli.Green("OK"))
	return passOutput(ds + " is valid")
}

// ============================================================================
// editExecutor
// ============================================================================

type editExecutor struct{}

func (e *editExecutor) Execute(ctx context.Context, r *Runner, step *Step) *StepOutput {
	// Everything local is checked before a session is opened.
	frag, err := r.Library.Get(step.Fragment)
	if err != nil {
		return errorOutput(err)
	}
	payload, err := frag.Render(step.Vars)
	if err != nil {
		return errorOutput(err)
	}
	filter, err := r.filter(&Step{})
	if err != nil {
		return errorOutput(err)
	}
	ds := r.datastore(step)

	r.banner(fmt.Sprintf("EDIT PAYLOAD %s (%s)", frag.Name, payload.Operation))
	fmt.Fprintln(r.Out, payload.XML)

	event := audit.NewEvent(r.User, r.endpoint.Label(), "edit-config").
		WithFragment(frag.Name, step.Vars).
		WithDatastore(ds).
		WithScenario(r.scenario.Name)
	start := time.Now()

	var (
		result *device.EditResult
		after  *device.ConfigReply
	)
	err = device.WithSession(ctx, r.endpoint, r.Options, func(s *device.Session) error {
		event.WithSession(s.ID())
		if _, ok := r.last[ds]; !ok {
			before, err := s.ReadConfig(ctx, ds, filter)
			if err != nil {
				return err
			}
			records, err := report.Parse(before)
			if err != nil {
				return err
			}
			r.remember(ds, records)
		}

		var err error
		result, err = s.EditConfig(ctx, ds, payload)
		if err != nil {
			return err
		}
		r.banner("REPLY")
		fmt.Fprintln(r.Out, cli.Status(result.Status()))

		after, err = s.ReadConfigReply(ctx, ds, filter)
		return err
	})
	if err != nil {
		if result != nil {
			event.WithResult(result.OK, result.Status())
		} else {
			event.WithError(err)
		}
		r.audit(event.WithDuration(time.Since(start)))
		return errorOutput(err)
	}

	records, err := r.show("UPDATED CONFIG", "after change", after)
	if err != nil {
		r.audit(event.WithResult(result.OK, result.Status()).WithDuration(time.Since(start)))
		return errorOutput(err)
	}
	changes := report.Diff(r.last[ds], records)
	r.remember(ds, records)
	r.banner("CHANGES")
	fmt.Fprintln(r.Out, changes.String())

	r.audit(event.WithResult(result.OK, result.Status()).WithChanges(changes).WithDuration(time.Since(start)))

	var out *StepOutput
	switch {
	case result.OK == step.expectOK():
		out = passOutput(result.Status())
	case result.OK:
		out = failOutput("device accepted an edit expected to be rejected")
	default:
		out = failOutput(result.Status())
	}
	out.Result.ReplyStatus = result.Status()
	out.Result.Changes = changes
	out.Result.Records = records
	return out
}

// ============================================================================
// commitExecutor
// ============================================================================

type commitExecutor struct{}

func (e *commitExecutor) Execute(ctx context.Context, r *Runner, step *Step) *StepOutput {
	event := audit.NewEvent(r.User, r.endpoint.Label(), "commit").
		WithDatastore("running").
		WithScenario(r.scenario.Name)
	start := time.Now()

	var result *device.EditResult
	err := device.WithSession(ctx, r.endpoint, r.Options, func(s *device.Session) error {
		event.WithSession(s.ID())
		if !s.HasCapability("urn:ietf:params:netconf:capability:candidate") {
			return util.NewPreconditionError("commit", s.Endpoint.Label(), "candidate datastore", "device does not advertise :candidate")
		}
		var err error
		result, err = s.Commit(ctx)
		return err
	})
	if err != nil {
		r.audit(event.WithError(err).WithDuration(time.Since(start)))
		return errorOutput(err)
	}

	r.banner("COMMIT")
	fmt.Fprintln(r.Out, cli.Status(result.Status()))
	if result.OK {
		r.forget("running")
	}
	r.audit(event.WithResult(result.OK, result.Status()).WithDuration(time.Since(start)))

	var out *StepOutput
	if result.OK {
		out = passOutput(result.Status())
	} else {
		out = failOutput(result.Status())
	}
	out.Result.ReplyStatus = result.Status()
	return out
}
