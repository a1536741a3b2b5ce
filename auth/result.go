package auth

// Result is what every orchestrator action returns. Failures never escape as
// panics or bare errors; Error is set and Success is false.
type Result[T any] struct {
	Success bool
	Data    T
	Message string
	Error   error
}

func succeed[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Error: err}
}

// ErrorMessage is the user-facing text of Error, or "".
func (r Result[T]) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}
