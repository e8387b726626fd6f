// Package types provides data structures shared between the domain packages
// and the transport layer.
package types
