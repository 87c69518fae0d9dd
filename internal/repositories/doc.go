// Package repositories implements SQLite persistence for server-side browser sessions.
//
// [SessionRepository] stores the encoded session record of each browser keyed by the ID carried in
// its cookie. Records carry an absolute expiry; expired rows read as missing and are swept by
// [SessionRepository.DeleteExpired].
//
// The schema lives in the shared migrations and must be applied with [shared.RunMigrations] first.
package repositories
