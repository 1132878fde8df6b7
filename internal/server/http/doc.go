// Package httpserver serves the runlog HTTP API. All §-level store
// operations are exposed as JSON endpoints under /v1, each responding with
// the service layer's uniform success/error envelope.
package httpserver
