// Package docstore defines the document store boundary the graph engine is
// built on.
//
// A [Store] exposes named [Collection]s of schemaless [Document]s addressed by
// a [Key]. Beyond plain find/insert/replace/remove, every collection offers
// three atomic single-document array primitives that the adjacency protocol
// relies on instead of read-then-replace:
//
//   - [Collection.AppendIfAbsent]: upsert the document, then append an element
//     unless one with the same match field already exists
//   - [Collection.UpdateElement]: set or unset fields on the matching element
//   - [Collection.PullElement]: remove the matching element
//
// # Keys
//
// Keys are a tagged variant: a [NativeKey] is an identifier minted by the
// store (an ObjectID for MongoDB, a UUID elsewhere) while a [StringKey] is an
// arbitrary caller string. Both kinds can live in the same collection;
// [Store.ParseNativeKey] reports whether a raw string is a valid native key.
//
// # Backends
//
//   - [NewMemoryStore]: in-process maps, for tests and throwaway graphs
//   - docstore/badgerstore: embedded BadgerDB with serializable transactions
//   - docstore/mongostore: MongoDB with server-side array operators
//   - docstore/redisstore: Redis with WATCH/MULTI optimistic transactions
//
// Wrap any store with [Instrument] to report operations to the
// observability hooks.
package docstore
