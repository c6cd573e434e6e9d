// Package httpapi serves the goAccount engine over JSON on a net/http
// ServeMux.
//
// Routes live under /api/auth and /api/verification. Every response uses the
// same envelope:
//
//	{"success": true, "message": "...", "data": {...}}
//	{"success": false, "message": "...", "errors": [{"field": "email", "message": "..."}]}
//
// Engine errors map to statuses in one place, [statusFor]. Handlers hold no
// account state; everything goes through the Engine.
package httpapi
