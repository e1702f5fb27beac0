// Package domain holds the records shared by the upload service and its
// repositories: an uploaded list, its processing status, the metrics of its
// last run and the names of the artifacts that run stored.
//
// Nothing here touches a database, a request or a context; repositories map
// these types to rows and handlers map them to JSON.
package domain
