// Package api provides the HTTP REST API server for the CoverDesk access
// control core.
//
// # Overview
//
// This package exposes authentication, rank administration, permission
// evaluation, and view simulation as RESTful endpoints under /api/v1.
//
// # Architecture
//
// The API is built on gorilla/mux and organized into domain-specific handler
// groups:
//
//   - Authentication: login, logout, session retrieval and extension
//   - Rank Administration: list and create ranks, assign and revoke them
//   - Access Evaluation: permission checks, link authorization, module gates
//   - View Simulation: view-mode switching, test mode, activity log
//   - Audit: query the recorded audit trail
//
// # Key Types
//
// Server is the main API server that coordinates all functionality:
//
//	server := api.NewServer(store, directory, evaluator, registry, auditLog, logger)
//	http.ListenAndServe(":8080", server.Handler())
//
// # Related Packages
//
//   - pkg/session: session store and user directory behind the auth routes
//   - pkg/access: the permission evaluator behind the access routes
//   - pkg/view: the simulator behind the view routes
package api
