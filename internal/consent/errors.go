package consent

// ValidationError is a failure the user resolves by completing a form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	// ErrMissingScreening is returned when the caregiver has no screening form.
	ErrMissingScreening = &ValidationError{
		Message: "Missing Subject Screening form. Please complete it before proceeding.",
	}
	// ErrMissingConsentVersion is returned when no consent version is recorded for the screening.
	ErrMissingConsentVersion = &ValidationError{
		Message: "Missing Consent Version form. Please complete it before proceeding.",
	}
)
