// Package upload delivers received recordings.
//
// With an endpoint configured, each file is sent as a single HTTP PUT to
// <endpoint>/<location>/<name>. Without one the file is written into the
// location directory on disk. Either way the work runs on its own goroutine
// and reports through store actions: UploadStarted, then UploadFinished or
// UploadFailed.
package upload
