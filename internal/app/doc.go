// Package app composes the scholarship workflow services into a running
// application.
//
// The package itself carries no business logic. It owns:
//
//   - the Application struct, service wiring and lifecycle management
//   - shared domain models under internal/app/domain/ (pure data)
//   - storage interfaces under internal/app/storage/ with interchangeable
//     memory and postgres implementations
//   - the HTTP surface under internal/app/httpapi/
//   - metrics under internal/app/metrics/
//
// Business rules live in internal/app/services/: intake validates and
// creates records, workflow owns status transitions and verification
// results, settlement issues payment references, projection computes the
// read views, and catalog maintains the scholarship lookup table.
package app
