package session

// User-facing texts. Failure messages never carry error details; those go to
// the log.
const (
	FileValidationMessage = "Please select a file and enter a question"
	ChatValidationMessage = "Please enter a question"

	UploadFailureMessage = "An error occurred while processing the file."
	ChatFailureMessage   = "An error occurred while processing the chat."
)

// ValidationError is returned by a submit action whose preconditions do not
// hold. No request is issued when it is returned.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func failureMessage(kind Kind) string {
	if kind == KindUpload {
		return UploadFailureMessage
	}
	return ChatFailureMessage
}
