package cli

// ErrorCode defines error types for CLI operations
type ErrorCode string

const (
	NoURLSpecified   ErrorCode = "NoURLSpecified"
	InvalidArguments ErrorCode = "InvalidArguments"
	ReadFileFailed   ErrorCode = "ReadFileFailed"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
