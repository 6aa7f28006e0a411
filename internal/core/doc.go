// Package core provides the workbench domain logic: the per-upload session,
// its bounded history and the manager that owns sessions.
//
// This package has no transport dependencies. Web handlers and tests drive
// it directly.
//
// # Store
//
// A [Store] holds the original upload, the working table and up to
// [MaxHistory] earlier versions. [Store.Commit] ignores tables equal to the
// current one, so a no-op operator never costs a history slot. When the
// history is full the oldest entry is dropped.
//
// # Session
//
// A [Session] wraps one Store with the workflow step, the pivot summary and
// the cached profile report. Every state change goes through the session
// mutex:
//
//	sess, err := manager.Load(ctx, core.LoadRequest{Name: "sales.csv", Body: f})
//	out, err := sess.Apply(ctx, "dedupe", nil)
//	out = sess.Undo(ctx)
//
// Operator failures leave the store untouched. Operators that decline a
// selection ([ops.ErrNotApplied]) are reported as [StatusNotApplied] and
// are not errors.
//
// # Manager
//
// A [Manager] keys sessions by uuid, bounds concurrent file parsing with a
// [LoadLimiter] and closes idle sessions from [Manager.Run].
//
// # Errors
//
// [MapError] turns any error into a [UserMessage] with a support code, for
// display by the web layer and the CLI.
package core
