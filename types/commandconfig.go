package types

// CommandConfig carries the flag values shared by the yieldsyncx commands.
type CommandConfig struct {
	Help         bool
	DataDir      string
	Port         int
	LogLevel     string
	DebugModules string
	OperatorKey  string // hex ECDSA key used to sign batch anchors
	NodeName     string
}
