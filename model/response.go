// file: model/response.go

package model

// Error codes carried in ErrorResponse.Code. Clients key their refresh logic
// off CodeTokenExpired, so its value is part of the wire contract.
const (
	CodeTokenExpired       = "token.expired"
	CodeTokenInvalid       = "token.invalid"
	CodeCredentialsInvalid = "credentials.invalid"
	CodeRequestInvalid     = "request.invalid"
	CodeInternal           = "internal"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
