// Package vision talks to an image-understanding model that names the
// ingredients visible in a bowl photo.
//
// The model is reached through any OpenAI-compatible chat-completions
// endpoint. The bowl crop travels as a JPEG data URI next to a text prompt
// listing the ingredient vocabulary and, optionally, the ingredients already
// read from the receipt. The reply is expected to be a JSON object; prose
// around the object is tolerated.
//
// # Errors
//
// Failures are classified with the remote package:
//   - rate limits, 5xx responses, timeouts and network errors are transient
//   - missing credentials and rejected requests mean the service is unavailable
//   - replies without a usable JSON object are malformed
//
// Callers fall back to the local color heuristic on any of them.
package vision
