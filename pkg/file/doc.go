// Package file persists the tracking backlog snapshot as a file, either on
// the local filesystem or as an object in Amazon S3 or an S3-compatible
// service such as MinIO.
//
// # Local
//
//	store, err := file.NewLocalStore("/var/lib/app", "htevents.json")
//
// The snapshot name is confined to the base directory; names that resolve
// outside it are rejected with ErrInvalidPath. Save writes a temporary file
// next to the target and renames it into place.
//
// # S3
//
//	store, err := file.NewS3Store(ctx, file.S3Config{
//		Bucket: "analytics",
//		Region: "eu-central-1",
//		Key:    "tracking/htevents.json",
//	})
//
// A missing object loads as an empty snapshot. Other failures are mapped to
// the package errors (ErrAccessDenied, ErrBucketNotFound, ErrServiceUnavailable
// and so on) so callers can use errors.Is.
package file
