// Package segments rewrites a segmentation report into the generator's
// entropy and segment lines.
//
// Input lines are whitespace-trimmed. Lines that begin with a digit are
// entropy rows (tab-separated, entropy in field 3); lines that begin with
// "# segment" are boundary rows (tab-separated, start and exclusive stop bit
// in fields 2 and 3). Everything else is ignored.
//
// Output is four word lines followed by one line per segment:
//
//	/32  : 0.00000 0.00000 ...
//	>A:  0-3  (bits   1-16 )
package segments
