// Package apierr normalizes failures coming back from the remote API into a
// single {status, message} shape before they reach component logic.
//
// Components never see raw transport errors: the remote client funnels every
// failure through FromStatus or Wrap, and callers classify the result with
// errors.Is against the exported markers (ErrUnauthorized, ErrConflict, ...).
// Normalize recovers the Error value for display.
package apierr
