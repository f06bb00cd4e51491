// Package session owns the mutable state of one debugger session: the
// interned path arena, the reconciled tree model and the latest proof view.
// All mutations funnel through a single command loop, so readers always
// observe state between complete reconciliation steps, never inside one.
package session
