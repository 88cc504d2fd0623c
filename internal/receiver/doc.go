// Package receiver implements a reference endpoint for signed submissions.
//
// It accepts exactly what submitbox sends and answers the way a production
// receiver is expected to, which makes it useful for local runs and CI smoke
// tests:
//   - POST /submit verifies the X-Signature-256 HMAC over the raw body
//   - a verified submission is answered with {"receipt": "<uuid>"}
//   - GET /health reports how many submissions were accepted
//
// Per-IP rate limiting and request logging are applied to every route.
package receiver
