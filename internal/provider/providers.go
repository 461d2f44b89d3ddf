package provider

// This file explicitly imports all provider implementation packages.
// The blank identifier (_) ensures that the init() function of each package
// runs, allowing them to register themselves with the central provider
// registry. The release deployment only targets S3 today; a second backend
// would implement storage.ReleaseStore, self-register, and be imported here.

import (
	_ "discover-release/pkg/storage/s3"
)
