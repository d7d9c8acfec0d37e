package vidcrypt

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// logHelper attaches standard fields to every record written by one
// operation. Key material and plaintext are never logged.
type logHelper struct {
	base     logrus.FieldLogger
	function string
	fields   logrus.Fields
}

// newLogHelper creates a helper writing to base, or to the standard logrus
// logger when base is nil.
func newLogHelper(base logrus.FieldLogger, function string) *logHelper {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &logHelper{
		base:     base,
		function: function,
		fields: logrus.Fields{
			"function": function,
			"package":  "vidcrypt",
		},
	}
}

// WithField adds a custom field
func (l *logHelper) WithField(key string, value any) *logHelper {
	l.fields[key] = value
	return l
}

// WithFields adds multiple custom fields
func (l *logHelper) WithFields(fields logrus.Fields) *logHelper {
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

// WithError adds error information
func (l *logHelper) WithError(err error, operation string) *logHelper {
	l.fields["error"] = err.Error()
	l.fields["error_type"] = errorKind(err)
	l.fields["operation"] = operation
	return l
}

func (l *logHelper) Entry(message string) {
	l.base.WithFields(l.fields).Debug(fmt.Sprintf("Function entry: %s", message))
}

func (l *logHelper) Exit() {
	l.base.WithFields(l.fields).Debug(fmt.Sprintf("Function exit: %s", l.function))
}

func (l *logHelper) Debug(message string) {
	l.base.WithFields(l.fields).Debug(message)
}

func (l *logHelper) Info(message string) {
	l.base.WithFields(l.fields).Info(message)
}

func (l *logHelper) Warn(message string) {
	l.base.WithFields(l.fields).Warn(message)
}

func (l *logHelper) Error(message string) {
	l.base.WithFields(l.fields).Error(message)
}

// errorKind names the error category for the error_type field
func errorKind(err error) string {
	switch {
	case IsValidationError(err):
		return "validation"
	case IsAuthenticationError(err):
		return "authentication"
	case IsEncryptionError(err):
		return "encryption"
	case IsCorruptionError(err):
		return "corruption"
	case IsFormatError(err):
		return "format"
	case IsIOError(err):
		return "io"
	default:
		return "other"
	}
}
