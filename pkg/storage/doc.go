// Package storage keeps user uploads, such as avatars, in S3-compatible
// object storage.
//
// S3 talks to AWS S3 or any compatible service (MinIO, R2); Memory keeps
// objects in process for development and tests. Both implement Storage.
//
//	store, err := storage.NewS3(cfg)
//	if err != nil {
//	    return err
//	}
//	info, err := storage.PutImage(ctx, store, fh, "avatars", storage.DefaultMaxImageSize)
//
// PutImage sniffs the content type from the file bytes, rejects anything
// that is not a JPEG, PNG, GIF or WebP image, and stores it under
// <prefix>/<ulid>.<ext>.
package storage
