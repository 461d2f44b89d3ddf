package common

type Provider string

const (
	S3 Provider = "S3"
)
