// Package remote classifies failures of external collaborators and retries
// the ones worth retrying.
//
// The text-extraction and vision-classification services are reached through
// this package. Their failures are wrapped in a ServiceError whose Kind is
// one of ErrTransient, ErrMalformedResponse or ErrUnavailable. Retry applies
// a bounded exponential backoff to transient failures only; every other kind
// is returned after the first call.
package remote
