package domain

// OpResult is the outcome of a container operation. Failures are values,
// never errors: Message carries the user-facing reason.
type OpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func Ok(msg string) OpResult { return OpResult{Success: true, Message: msg} }

func Fail(msg string) OpResult { return OpResult{Success: false, Message: msg} }
