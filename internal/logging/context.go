package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldMode names the AV mode (recording, previewing, broadcasting) a record concerns.
	FieldMode = "mode"
	// FieldSignal names the backend wire signal a record concerns.
	FieldSignal = "signal"
	// FieldEventType is the machine-readable event classifier.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step when something went wrong.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)
