package utils

import "os"

var (
	AWS_ACCESS_KEY_ID     = os.Getenv("AWS_ACCESS_KEY_ID")
	AWS_SECRET_ACCESS_KEY = os.Getenv("AWS_SECRET_ACCESS_KEY")
	AWS_DEFAULT_REGION    = GetEnvOrDefault("AWS_DEFAULT_REGION", "us-east-1")

	S3_BUCKET_NAME = os.Getenv("S3_BUCKET_NAME")
	S3_ENDPOINT    = os.Getenv("S3_ENDPOINT")

	// FULL_LOAD_THRESHOLD is the row count at or under which a file is decoded
	// whole instead of per row group. Applies to the next file load only.
	FULL_LOAD_THRESHOLD = GetEnvOrDefaultInt("FULL_LOAD_THRESHOLD", 100_000)

	// ROW_GROUP_CACHE_ENTRIES bounds the per-file cache of decoded row groups.
	// 0 disables the cache.
	ROW_GROUP_CACHE_ENTRIES = GetEnvOrDefaultInt("ROW_GROUP_CACHE_ENTRIES", 32)

	// DECODE_PARALLELISM is how many columns are decoded concurrently.
	DECODE_PARALLELISM = GetEnvOrDefaultInt("DECODE_PARALLELISM", 4)

	// MAX_UPLOAD_BYTES caps the size of an uploaded parquet file.
	MAX_UPLOAD_BYTES = GetEnvOrDefaultInt("MAX_UPLOAD_BYTES", 1_073_741_824)
)
