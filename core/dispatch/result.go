package dispatch

// Result is the outcome of executing a routed action. Message is always
// populated on failure so the response layer has something to say.
type Result struct {
	Success bool
	Message string
	Data    map[string]any
}

func failure(message string) Result {
	return Result{Success: false, Message: message}
}
