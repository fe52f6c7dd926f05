// Package singleusetoken issues the opaque, time-bounded tokens that gate
// account activation and device confirmation. A token is consumable once and
// is deleted by its owner when superseded or consumed.
package singleusetoken
