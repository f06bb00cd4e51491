// Package fetch talks to a GroveDB debugger endpoint. Every request is a
// POST of a CBOR record; data requests are wrapped with the session id the
// endpoint handed out, which pins the snapshot of the database the session
// observes.
package fetch
