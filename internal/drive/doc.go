// Package drive provides Google Drive operations for the destination side of
// a sync run: verifying the destination root, resolving per-date folders with
// find-or-create semantics, and uploading staged recordings with resumable
// chunks and progress reporting.
package drive
