// Package remote implements the typed Remote API client used by every vidash
// component.
//
// The Client owns transport concerns: base URL resolution, bearer tokens,
// request IDs, JSON envelopes and status classification. Callers only ever see
// decoded payloads or an *apierr.Error, never raw transport failures.
//
// Components depend on the narrow interfaces they need (see playback.Recorder,
// assignment.Remote, activity.Source) rather than on Client directly so tests
// can substitute fakes.
package remote
