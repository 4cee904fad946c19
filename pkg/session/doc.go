/*
Package session runs many independent roots, one per session ID, behind a
snapshot store.

Each session renders declarative documents (see package dsl) into its own
in-memory host. After every committed render the manager stores a snapshot
holding the document and the serialized HTML, so a session can be restored
on another process or replica by replaying its document. Access to a
session is serialized with reference-counted local locks and, optionally,
a distributed locker.
*/
package session
