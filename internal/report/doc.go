// Package report defines the progress reporting surface shared by the
// pipelines. A Sink receives (message, severity) pairs at each notable step;
// it is the only coupling between the pipeline cores and the surrounding
// task and logging machinery.
package report
