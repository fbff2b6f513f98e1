package protocol

// Top-level method names.
const (
	MethodListTools = "listTools"
	MethodCallTool  = "callTool"
)
