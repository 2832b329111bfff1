// Package isolation runs a source adapter in a separate worker process.
//
// Some sources drive technology that cannot share the orchestrator's
// concurrency domain. A Boundary wraps such a source behind the ordinary
// SourceAdapter contract: each Fetch spawns a fresh worker, hands it the
// request on stdin, and reads a single envelope back from a hand-off file
// that exists only for that invocation. If the worker overruns its
// timeout, its whole process group is killed.
//
// The worker side is RunWorker, invoked by the hidden "worker" command.
package isolation
