// Package job runs one refresh of the feed repository: setup steps, the
// generate step, then stage, commit and push when the tree changed.
//
// A run is sequential and holds the job lock for its whole duration. It
// never creates more than one commit, and a run that changes nothing
// creates none.
package job
