// Package services contains the application services behind the CLI
// screens: contracts, users, authentication and the dashboard summary.
//
// Reads go through the shared query.Cache so that screens asking for the
// same data share one request and see the same cached value. Writes go
// straight to the API and invalidate the affected keys.
package services
