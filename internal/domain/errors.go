package domain

import "errors"

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCacheCorrupt       = errors.New("mod cache corrupt")
	ErrUnknownVersion     = errors.New("unknown mod version")
	ErrDownloadFailed     = errors.New("download failed")
	ErrModNotFound        = errors.New("mod not found")
	ErrMalformedRecord    = errors.New("malformed catalog record")
	ErrProfileExists      = errors.New("profile already exists")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileActive      = errors.New("profile is deployed")
	ErrInvalidProfileName = errors.New("invalid profile name")
	ErrDuplicateMod       = errors.New("mod already in profile")
	ErrDeployFailed       = errors.New("deploy failed")
	ErrUndeployFailed     = errors.New("undeploy failed")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrLinkFailed         = errors.New("link operation failed")
)
