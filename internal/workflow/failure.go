package workflow

import (
	"errors"
	"fmt"

	"minutes/internal/intake"
	"minutes/internal/services/minutesapi"
)

var (
	// ErrBusy is returned when an operation starts while another is running.
	ErrBusy = errors.New("another operation is in progress")
	// ErrNoActiveJob is returned by confirm, export and copy without a job.
	ErrNoActiveJob = errors.New("no active job")
)

// Operation names used for failures, logs and notifications.
const (
	OpUpload  = "upload"
	OpProcess = "process"
	OpConfirm = "confirm"
	OpExport  = "export"
	OpCopy    = "copy"
)

// Failure is an operation error carrying the message shown to the user.
type Failure struct {
	Operation string
	Message   string
	Err       error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Operation, f.Message)
	}
	return fmt.Sprintf("%s: %s: %v", f.Operation, f.Message, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// UserMessage returns the text to show for err, or "" for nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Message
	}
	return err.Error()
}

func validationFailure(err error) *Failure {
	var verr *intake.ValidationError
	if errors.As(err, &verr) {
		return &Failure{Operation: OpUpload, Message: verr.Message(), Err: err}
	}
	return &Failure{Operation: OpUpload, Message: "Error: " + err.Error(), Err: err}
}

func sequenceFailure(operation string, err error) *Failure {
	return &Failure{Operation: operation, Message: "Error: " + minutesapi.UserMessage(err), Err: err}
}

func confirmFailure(err error) *Failure {
	return &Failure{Operation: OpConfirm, Message: "Error confirming: Confirmation failed", Err: err}
}

func exportFailure(operation string, err error) *Failure {
	prefix := "Export failed: "
	if operation == OpCopy {
		prefix = "Copy failed: "
	}
	return &Failure{Operation: operation, Message: prefix + minutesapi.UserMessage(err), Err: err}
}
