// Package process runs analyzer commands.
//
// Every invocation gets its own temporary directory holding stdout.txt and
// stderr.txt, so that concurrent invocations never share capture files. The
// directory is removed before Exec returns, whatever the outcome.
//
// Commands are handed to "sh -c" on Unix-like systems and to "cmd /C" on
// Windows. On Windows, echo segments of the command are rewritten to the
// "echo | set /p=" idiom so that their output carries no trailing space or
// newline, matching what sh prints for the same command.
//
// A timeout or cancelled context kills the whole process group. The timer and
// the wait path settle the outcome through a single compare-and-swap, so an
// invocation is reported either as finished or as timed out, never both.
package process
