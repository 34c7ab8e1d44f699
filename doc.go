/*
Package kmerdb stores the intermediate data of a genome assembly run (kmers,
branching nodes, adjacency records) in a persistent, hierarchical namespace
of append-only collections.

We implement:

1. Containers, one storage artifact each (a Bolt file by default).

2. Groups, named path segments nested inside a container.

3. Collections, typed append-only sequences of items, and sets of uint64
values.

4. Partitions, fixed-size groups of sibling collections that parallel
workers fill without sharing a lock.

# Technical Details

**Buckets.**
Groups and collections are nested Bolt buckets. A collection bucket is marked
with its kind under the key "k", which is how a group is told apart from a
collection when the namespace is walked.

**Blocks.**
Every flush of a collection writes one block under "b" followed by a
big-endian sequence number, so blocks sort in flush order. A block holds the
msgpack encoding of its items, optionally compressed with LZ4 or zstd, and an
xxhash64 checksum of the stored bytes. The running item count lives under
"n", properties under "p" followed by the property name.

**Sets.**
A set collection keeps a single roaring bitmap under "r". Flushing merges the
buffered values into it.

**Flushing.**
Items are buffered in memory and become visible to readers on Flush, which
happens automatically every Options.FlushThreshold items and for all
collections when the container is closed. Flushes go through Bolt's Batch, so
concurrent flushes of different collections share write transactions.

**Locking.**
Creating a node checks whether it exists and creates it if not; this runs
under the container's Synchronizer (or a caller-provided lock) as a single
critical section. Writing to a collection takes no lock at all: each
collection must have a single writing goroutine.
*/
package kmerdb
