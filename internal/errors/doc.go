// Package errors provides structured, actionable error messages for the
// overlay's outer layers: configuration loading, input decoding and the CLI.
//
// The report pipeline itself never fails on absent data; these errors cover
// what the user has to fix (a malformed overlay.toml, an unreadable input
// document, a port already in use).
//
// # Error Categories
//
//   - hydration: server/client markup mismatch hints shown with a report
//   - config: overlay.json / overlay.toml problems
//   - cli: flags, files and the dev server
//
// # Error Codes
//
// Each error has a unique code (e.g., "E149") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("E149").
//	    WithLocation("error.json", 4, 17).
//	    WithSuggestion("The input must be a JSON object with an \"error\" field").
//	    Wrap(jsonErr)
//
//	errors.PrintError(err)
//	// Output:
//	// ERROR E149: Invalid input document
//	//
//	//   error.json:4:17
//	//
//	//       2 │   "error": {
//	//       3 │     "name": "Error",
//	//   →   4 │     "message": oops
//	//         │                ^
//	//       5 │   }
//	//
//	//   Hint: The input must be a JSON object with an "error" field
package errors
