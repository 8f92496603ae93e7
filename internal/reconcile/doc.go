// Package reconcile applies user-configured buffer options to the active
// buffer while leaving alone the options EditorConfig already governs.
//
// A pass runs in four steps:
//
//  1. resolve the active buffer and its filetype
//  2. read the user's configuration for that filetype
//  3. compute the suppressed set from the buffer's EditorConfig state
//  4. apply every configured option that is not suppressed
//
// Every configured option ends up in exactly one of three outcomes:
// suppressed, applied or failed. A failing option never stops the rest of
// the pass. Options absent from the configuration are never touched.
//
// # EditorConfig properties
//
// The suppressed set is derived from ManagedOptions:
//
//	charset              bomb, fileencoding
//	end_of_line          fileformat
//	indent_style         expandtab
//	indent_size          shiftwidth, softtabstop, tabstop
//	insert_final_newline fixendofline, endofline
//	max_line_length      textwidth
//	tab_width            tabstop
//
// A property counts only when its value is truthy (see Truthy), so a
// property that EditorConfig explicitly unset does not suppress anything.
//
// # Concurrency
//
// Passes are not serialized. Two passes on the same buffer may interleave at
// every host call; the last SetBufferOption to land wins.
package reconcile
