// Package access decides whether a request may reach a protected area.
//
// The Gate runs on the server for every request to a protected path and only
// proves that a valid session exists; it never looks at the role. The
// RoleRouter then maps a resolved session to the dashboard area it may use.
package access
