package envelope

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationReason identifies why an upload was rejected before conversion.
type ValidationReason string

const (
	NoFileProvided       ValidationReason = "no_file_provided"
	EmptyFilename        ValidationReason = "empty_filename"
	UnsupportedExtension ValidationReason = "unsupported_extension"
	TooLarge             ValidationReason = "too_large"
)

// ValidationError is a client-caused rejection raised by the input validator.
type ValidationError struct {
	Reason ValidationReason
	Detail string // optional extra, e.g. the offending extension
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("validation: %s (%s)", e.Reason, e.Detail)
	}
	return fmt.Sprintf("validation: %s", e.Reason)
}

// ConversionReason identifies why the conversion engine failed.
type ConversionReason string

const (
	EngineRejected ConversionReason = "engine_rejected"
	Timeout        ConversionReason = "timeout"
	CorruptInput   ConversionReason = "corrupt_input"
	Unknown        ConversionReason = "unknown"
)

// ConversionError is an engine-caused failure raised by the conversion
// adapter. Err keeps the underlying cause for logging; it never reaches
// the client.
type ConversionError struct {
	Reason ConversionReason
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversion: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("conversion: %s", e.Reason)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Validation builds a ValidationError.
func Validation(reason ValidationReason, detail string) error {
	return &ValidationError{Reason: reason, Detail: detail}
}

// Conversion builds a ConversionError wrapping cause.
func Conversion(reason ConversionReason, cause error) error {
	return &ConversionError{Reason: reason, Err: cause}
}

// Classify maps any pipeline error to an HTTP status and a user-safe
// message. Raw internal detail (paths, engine diagnostics, wrapped causes)
// never appears in the returned message.
func Classify(err error) (int, string) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		switch ve.Reason {
		case NoFileProvided:
			return http.StatusBadRequest, "No file provided. Please upload a file with field name 'file'"
		case EmptyFilename:
			return http.StatusBadRequest, "No file selected. Please select a file to upload"
		case UnsupportedExtension:
			msg := "Invalid file type. Allowed types: PDF, DOCX, DOC, PPTX, PPT, XLSX, XLS, HTML, TXT, MD"
			if ve.Detail != "" {
				msg = fmt.Sprintf("Unsupported file type: %s", ve.Detail)
			}
			return http.StatusBadRequest, msg
		case TooLarge:
			return http.StatusRequestEntityTooLarge, "File size exceeds maximum allowed size"
		}
		return http.StatusBadRequest, "Invalid upload"
	}

	var ce *ConversionError
	if errors.As(err, &ce) {
		switch ce.Reason {
		case Timeout:
			return http.StatusInternalServerError, "Document conversion timed out"
		case CorruptInput:
			return http.StatusInternalServerError, "Document appears to be corrupted or unreadable"
		case EngineRejected:
			return http.StatusInternalServerError, "Document could not be converted"
		}
		return http.StatusInternalServerError, "Failed to process document"
	}

	return http.StatusInternalServerError, "An unexpected error occurred while processing the request"
}
