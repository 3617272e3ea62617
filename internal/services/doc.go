// Package services holds shared service-layer plumbing: the error taxonomy
// used to classify pipeline failures and context helpers that thread job and
// request identity through blocking calls.
package services
