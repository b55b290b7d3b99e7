// Package abtest implements A/B testing of promotion settings.
//
// A test pits variants of promotion configuration against each other for one
// content item. Each variant is backed by its own promotion schedule; once a
// test has run long enough and gathered enough views, the highest-scoring
// variant wins and its settings propagate to the content record and any
// future-dated schedules.
package abtest
