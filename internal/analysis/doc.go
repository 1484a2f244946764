// Package analysis asks the LLM to translate and explain segmented sentences.
//
// Sentences are processed by a bounded pool of workers and results keep the
// input order. Answers are cached in the store by model and sentence text, so
// re-running a video only pays for sentences it has not seen. A failed LLM
// call does not stop the run; the record's explanation carries the error.
// Records are persisted as analysis.jsonl.
package analysis
