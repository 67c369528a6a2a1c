// Package ratelimit bounds request rates per owner identity using fixed
// time windows, each with its own request counter.
package ratelimit
