// Package task defines the caller-visible record of a submitted analytics
// job and its lifecycle, from submission through polling to a terminal
// state, including the blocking result accessor.
package task
