// Package serde converts annotated documents to and from their JSON
// ("movie") representation.
//
// Three serializers share one wire vocabulary:
//
//   - Plain: each typed value becomes an object with a "_type" tag
//     ("goal", "hypothesis", ...) and named fields. This is the cache and
//     interchange format.
//   - Dedup: like Plain, but typed values are emitted at most once, as
//     {"&": <alias>, "_": [fields...]}; repeats become {"*": N} pointers
//     into the table of objects emitted so far.
//   - FullDedup: like Dedup, but scalars, lists and maps are deduplicated
//     too — every encoded node gets a table slot in emission order.
//
// Deduplication keys are canonical-JSON content hashes (document.NodeKey),
// so two values share a slot exactly when they are structurally equal.
package serde
