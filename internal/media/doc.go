// Package media defines the declarative video configuration: scenes, their
// audio and image elements, the optional background video, and subtitle
// styling. Element lists are polymorphic over a closed set of variants
// discriminated by the "type" tag; parsing rejects unknown types outright.
package media
