package types

// API error codes. The transport maps every client-visible failure onto one
// of these so panel UIs can switch on them.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeMalformedConfig = "MALFORMED_CONFIG"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
