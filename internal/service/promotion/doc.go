// Package promotion implements promotion schedule lifecycle management.
//
// The service layer contains all business logic for creating, updating,
// completing, and recurring promotion schedules. It depends on repository
// interfaces defined in this package and should never import from api/.
//
// Repository implementations live in repository/postgres/.
package promotion
