/*
Package errors implements the coded errors used across the settlement core.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. Every root error carries a
stable numeric code that clients use to distinguish rejection reasons, so a
registered code must never be repurposed.

If you want to register a custom error - use Register(code, description).
For reusing errors - use ErrXxx.New and ErrXxx.Newf.

There is also support for stacktraces. Please ensure you create the custom
error using ErrXyz.New("...") or errors.Wrap(err, "...") at the point of
creation to ensure we attach a stacktrace. If you wrap multiple times, we
only record the first wrap with the stacktrace.
*/
package errors
