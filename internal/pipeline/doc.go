// Package pipeline runs one job's stage sequence from parsed config to
// encoded output, publishing progress milestones and honoring cancellation
// at the checkpoint between every stage.
package pipeline
