package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *ChronicleError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *ChronicleError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *ChronicleError {
	return New(CategoryValidation, SeverityWarning, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Data plane errors

func RecordNotFound(id string) *ChronicleError {
	return New(CategoryNotFound, SeverityWarning, "record not found").
		WithContext("record_id", id)
}

func RecordExists(id string) *ChronicleError {
	return New(CategoryConflict, SeverityWarning, "record already exists").
		WithContext("record_id", id)
}

func JournalError(op string, cause error) *ChronicleError {
	return Wrap(cause, CategoryJournal, SeverityError, "journal operation failed").
		WithContext("op", op)
}

func StorageError(path string, cause error) *ChronicleError {
	return Wrap(cause, CategoryStorage, SeverityError, "storage operation failed").
		WithContext("path", path)
}

// Event errors

func PublishError(subject string, cause error) *ChronicleError {
	return WrapRetryable(cause, CategoryEvents, SeverityWarning, "event publish failed").
		WithContext("subject", subject)
}

// Runtime errors

func DaemonError(message string) *ChronicleError {
	return New(CategoryDaemon, SeverityError, message)
}

func InternalError(message string, cause error) *ChronicleError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
