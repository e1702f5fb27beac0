// Package upload implements the list cleaning workflow around one uploaded
// file: storing the original, running the validation pipeline under a
// per-upload lock, and summarizing the stored artifacts.
//
// The service layer depends on the Repository interface defined in
// repository.go. It never imports net/http or database/sql directly.
package upload
