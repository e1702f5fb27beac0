// Package api exposes the upload workflow over HTTP.
package api
