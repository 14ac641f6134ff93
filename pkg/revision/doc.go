/*
Package revision implements the Revision API: the five public operations
(Put, Delete, GetAt, Timemap, IndexAt) that orchestrate the hash
directory, change log, blob store, and delta engine.

Every mutating call runs inside one store.Update transaction: hash
directory insert, chain read, blob write, and change-log append all
commit or roll back together, so a cancelled or failed call never leaves
a key's history half-written. Read-only calls observe a single
store.View snapshot.
*/
package revision
