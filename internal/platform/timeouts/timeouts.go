// Package timeouts defines the timeouts shared by the tile service and its tooling.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the health endpoint.
const GRPCDial = 2 * time.Second

// Request bounds one host tile or resource request.
const Request = 10 * time.Second

// AvatarFetch bounds one avatar download.
const AvatarFetch = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers and telemetry wait to drain.
const Shutdown = 5 * time.Second
