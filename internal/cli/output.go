package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Коды завершения команд.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // отказ операции: нет товара, мало кредитов и т. п.
	ExitCommandError = 2 // ошибка вызова: неверные аргументы, хранилище недоступно
)

// ExitError описывает ошибку с кодом завершения процесса.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError оборачивает ошибку с кодом завершения.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode извлекает код завершения из ошибки. По умолчанию ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter печатает результат текстом или JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response описывает формат JSON-вывода.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success печатает результат. text печатается в текстовом режиме, data в JSON.
func (f *OutputFormatter) Success(text string, data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}

	_, err := fmt.Fprintln(f.Writer, text)
	return err
}
