package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/option"
)

// StorageMode selects the backend that holds report documents, the base
// template and company logos.
type StorageMode string

const (
	ModeGCS      StorageMode = "gcs"
	ModeEmulator StorageMode = "gcs_emulator"
	// ModeLocal is served by internal/platform/localstore.
	ModeLocal StorageMode = "local"
)

// BucketNames are the per-category bucket settings.
type BucketNames struct {
	Report    string
	Asset     string
	ReportCDN string
	AssetCDN  string
}

type StorageConfig struct {
	Mode         StorageMode
	EmulatorHost string
	LocalRoot    string
	// PublicBaseURL, when set, prefixes download links instead of the
	// storage.googleapis.com (or emulator) address.
	PublicBaseURL   string
	Buckets         BucketNames
	CredentialsJSON string
	CredentialsFile string
	// Inferred marks a mode derived from STORAGE_EMULATOR_HOST rather than
	// configured explicitly.
	Inferred bool
}

// InferStorageMode resolves the configured mode. An empty mode means the
// emulator when an emulator host is present and GCS otherwise.
func InferStorageMode(raw, emulatorHost string) (StorageMode, bool) {
	mode := StorageMode(strings.ToLower(strings.TrimSpace(raw)))
	if mode != "" {
		return mode, false
	}
	if strings.TrimSpace(emulatorHost) != "" {
		return ModeEmulator, true
	}
	return ModeGCS, false
}

// ConfigError names the setting that made a StorageConfig unusable.
type ConfigError struct {
	Setting string
	Value   string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("object storage: %s %s", e.Setting, e.Reason)
	}
	return fmt.Sprintf("object storage: %s=%q %s", e.Setting, e.Value, e.Reason)
}

func (c StorageConfig) Validate() error {
	switch c.Mode {
	case ModeLocal:
		if strings.TrimSpace(c.LocalRoot) == "" {
			return &ConfigError{Setting: "LOCAL_STORAGE_ROOT", Reason: "is required in local mode"}
		}
	case ModeEmulator:
		if strings.TrimSpace(c.EmulatorHost) == "" {
			return &ConfigError{Setting: "STORAGE_EMULATOR_HOST", Reason: "is required in gcs_emulator mode"}
		}
		if !isAbsoluteURL(c.EmulatorHost) {
			return &ConfigError{Setting: "STORAGE_EMULATOR_HOST", Value: c.EmulatorHost, Reason: "must be an absolute URL like http://fake-gcs:4443"}
		}
		if err := c.validateBuckets(); err != nil {
			return err
		}
	case ModeGCS:
		if err := c.validateBuckets(); err != nil {
			return err
		}
	default:
		return &ConfigError{Setting: "OBJECT_STORAGE_MODE", Value: string(c.Mode), Reason: fmt.Sprintf("must be one of %s, %s, %s", ModeGCS, ModeEmulator, ModeLocal)}
	}
	if c.PublicBaseURL != "" && !isAbsoluteURL(c.PublicBaseURL) {
		return &ConfigError{Setting: "OBJECT_STORAGE_PUBLIC_BASE_URL", Value: c.PublicBaseURL, Reason: "must be an absolute URL"}
	}
	return nil
}

func (c StorageConfig) validateBuckets() error {
	if strings.TrimSpace(c.Buckets.Report) == "" {
		return &ConfigError{Setting: "REPORT_GCS_BUCKET_NAME", Reason: "is required"}
	}
	if strings.TrimSpace(c.Buckets.Asset) == "" {
		return &ConfigError{Setting: "ASSET_GCS_BUCKET_NAME", Reason: "is required"}
	}
	return nil
}

// publicBase is the prefix for object links: the explicit public base URL,
// then the emulator host, then none (GCS default host).
func (c StorageConfig) publicBase() string {
	if base := strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/"); base != "" {
		return base
	}
	if c.Mode == ModeEmulator {
		return strings.TrimRight(strings.TrimSpace(c.EmulatorHost), "/")
	}
	return ""
}

// credentialOptions accepts inline JSON credentials or a key file path; with
// neither the client falls back to application default credentials.
func (c StorageConfig) credentialOptions() []option.ClientOption {
	if raw := strings.TrimSpace(c.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(c.CredentialsFile); path != "" {
		if strings.HasPrefix(path, "{") {
			return []option.ClientOption{option.WithCredentialsJSON([]byte(path))}
		}
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && u.Scheme != "" && u.Host != ""
}
