// Package tiles is the root of the messaging favorites tile service.
//
// The domain package keeps the latest favorites snapshot hot while readers
// need it and resolves tile image resources. render lays tiles out, api
// serves them over HTTP and app wires the runtime.
package tiles
