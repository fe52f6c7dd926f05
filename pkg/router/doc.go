// Package router wires the account and device trust handlers onto a chi
// router, splitting public endpoints from those behind the JWT verifier.
package router
