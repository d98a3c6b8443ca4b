// Package observability provides structured logging and health probing for
// the CoverDesk access control core.
//
// # Overview
//
// Logging is structured JSON built on stdlib slog with leveled output and
// contextual fields:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("user_id", userID).Info("session created")
//
// Health checking probes the directory database and the Redis session
// backend, exposing liveness and readiness handlers for k8s probes:
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	mux.HandleFunc("/healthz", checker.Liveness)
//	mux.HandleFunc("/readyz", checker.Readiness)
package observability
