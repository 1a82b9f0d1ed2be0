package core

// Logger is the process-wide logging contract. Implementations may ship
// entries to an error tracker in addition to the console; args may
// include an error, a context map or a user value for attribution.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
