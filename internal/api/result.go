package api

// ReturnCode classifies a Result
type ReturnCode string

const (
	CodeOK                  ReturnCode = "OK"
	CodeError               ReturnCode = "Error"
	CodeServerInternalError ReturnCode = "ServerInternalError"
	CodeNetworkError        ReturnCode = "NetworkError"
	CodeConfigurationError  ReturnCode = "ConfigurationError"
)

// ClientError describes a failed Result. Code is a ReturnCode for local
// failures or the remote fault code for XML-RPC faults.
type ClientError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a write or validate operation. Response keeps the
// protocol-native payload for diagnostics on success and failure.
type Result[T any] struct {
	Code     ReturnCode   `json:"code"`
	Data     T            `json:"data,omitempty"`
	Error    *ClientError `json:"error,omitempty"`
	Response any          `json:"response,omitempty"`
}

// OK reports whether the operation succeeded
func (r Result[T]) OK() bool {
	return r.Code == CodeOK
}

func okResult[T any](data T, response any) Result[T] {
	return Result[T]{Code: CodeOK, Data: data, Response: response}
}

func errorResult[T any](code, message string, response any) Result[T] {
	return Result[T]{
		Code:     CodeError,
		Error:    &ClientError{Code: code, Message: message},
		Response: response,
	}
}

// convertFailure carries a failed Result over to another data type
func convertFailure[T, U any](r Result[U]) Result[T] {
	return Result[T]{Code: r.Code, Error: r.Error, Response: r.Response}
}
