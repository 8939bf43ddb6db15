package logger

// noop is the default Logger used when a caller constructs a Vault
// without injecting one of their own.
type noop struct{}

// Noop returns a Logger whose methods are all no-ops.
func Noop() Logger { return noop{} }

func (noop) Debug(msg string, fields ...Field)             {}
func (noop) Info(msg string, fields ...Field)              {}
func (noop) Warn(msg string, fields ...Field)              {}
func (noop) Error(msg string, err error, fields ...Field)  {}
func (n noop) WithComponent(component string) Logger       { return n }
func (n noop) WithFields(fields ...Field) Logger           { return n }
