// Package backend supervises the backend server process.
//
// State holds what the rest of the host needs to know about the backend:
// the discovered port, the live child handle and whether shutdown has
// begun. Supervisor starts the backend in one of two modes, and
// HandshakeReader turns the child's PYTHON_BACKEND_PORT line into a port.
// Orchestrator runs the terminate-then-close sequence exactly once, however
// many close requests arrive.
package backend
