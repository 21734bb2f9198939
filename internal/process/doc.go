// Package process runs the external commands of a job: setup steps, the
// generate step, and the runtime version probe.
//
// Every command runs in an explicit working directory with a timeout,
// inherits the parent environment plus the step's own variables and the
// run variables (ARKFEED_RUN_ID, ARKFEED_OUTPUT_DIR), and fails with a
// typed *errors.ProcessError carrying the captured output.
package process
