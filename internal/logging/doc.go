// Package logging wraps log/slog in a small leveled Logger interface so the
// review pass can log with structured attributes and tests can pass Nop().
package logging
