/*
Package log provides structured logging for the revision storage engine
using zerolog.

A single global Logger is initialized once via Init and then specialized
per call site with WithComponent, WithRepo, and WithKeyHash, which attach
structured fields (component, repo, key_hash) without requiring every
caller to carry a logger reference of its own through the call stack.

Output is either JSON (production) or a human-readable console format
(development), selected by Config.JSONOutput.
*/
package log
