// Package alarm implements the gRPC transport of the controller's operator API.
//
// The service is described by hand over protobuf well-known types: requests
// and responses are google.protobuf.Struct messages whose layout is defined by
// the Encode and Decode helpers, shared by the server and by clients.
package alarm
