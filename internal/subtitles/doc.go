// Package subtitles turns SRT captions into timestamped sentences.
//
// Blocks are read from the SRT container, folded into spans until a block
// ends in a sentence terminator, and each closed span is re-split into
// sentences. Every sentence takes the start time of the block that holds its
// first character. Abbreviation protection is opt-in; without it every '.',
// '?' and '!' ends a sentence.
package subtitles
