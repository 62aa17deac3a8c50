// Package handlers defines the HTTP-layer error titles used across all API
// endpoints.
//
// This file centralizes the title constants carried in the `error` member of
// the error envelope (via the `fail()` helper in this package). Titles are
// the Title-Case reason phrase of the status code, so clients can branch on
// either the numeric status or the title, while `message` stays free-form
// and human-readable.
//
// Example response:
//
//	{
//	  "status": 404,
//	  "error": "Not Found",
//	  "message": "Promotion with id '42' was not found."
//	}
package handlers

const (
	TitleBadRequest           = "Bad Request"
	TitleNotFound             = "Not Found"
	TitleMethodNotAllowed     = "Method Not Allowed"
	TitleUnsupportedMediaType = "Unsupported Media Type"
	TitleInternalServerError  = "Internal Server Error"
)

// internalErrorMessage is the fixed client-facing text for persistence and
// other server-side failures. Details stay in the server logs.
const internalErrorMessage = "An unexpected error occurred."
