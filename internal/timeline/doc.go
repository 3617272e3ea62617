// Package timeline turns per-source media durations into scene placement:
// each scene's start offset is the cumulative sum of the durations of the
// scenes before it, and the total duration is the sum over all scenes.
package timeline
