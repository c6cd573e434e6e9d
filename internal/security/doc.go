// Package security derives a read-only posture report from engine settings.
//
// BuildReport takes plain values so it can be tested without an Engine and
// never imports the root package.
package security
