// Package s3 implements the shared store on S3-compatible object storage
// (Hetzner Object Storage, AWS S3, MinIO).
//
// Every key maps to one object. The versioned-lock election relies on bucket
// versioning: PutObject returns the VersionId the service assigned and
// ListObjectVersions returns the write history of the lock object. The bucket
// must have versioning enabled and no lifecycle rule that expires noncurrent
// versions, otherwise the oldest lock write can disappear and a later writer
// would see itself as oldest. [Client.VersioningEnabled] checks the first
// half of that precondition; lifecycle rules are the operator's concern.
package s3
