// Package document provides the core data model for annotated proof
// documents ("movies"): the fragments produced by running chunks of proof
// code through a prover, together with the goals, hypotheses and messages
// attached to each sentence.
//
// This package contains type definitions and content-identity helpers only.
// All other internal packages import document; document imports nothing
// internal. This keeps the data model the foundational layer with no
// circular dependencies.
//
// Content identity (used for deduplication keys and cache validation) is
// computed from canonical JSON (sorted keys, NFC-normalized strings, no
// HTML escaping) hashed with SHA-256 under a domain-separation prefix.
package document
