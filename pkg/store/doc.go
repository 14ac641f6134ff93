/*
Package store owns database lifecycle: opening the bbolt file, creating
buckets on first run, and exposing Update/View transaction scopes to the
rest of the engine.

bbolt permits exactly one read-write transaction at a time; every mutating
revision operation runs inside a single Update call spanning its hash
directory, change log, and blob store work, so commit is all-or-nothing and
a second writer targeting the same or a different key never observes a
partially-applied write.
*/
package store
