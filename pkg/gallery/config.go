package gallery

import "time"

type Config struct {
	// PageSize is the default number of images per batch.
	PageSize int `env:"GALLERY_PAGE_SIZE,default=10" validate:"min=1,max=100"`
	// ProviderTimeout bounds every single upstream call. Zero disables the deadline.
	ProviderTimeout time.Duration `env:"GALLERY_PROVIDER_TIMEOUT,default=8s" validate:"min=0"`
	// SessionTTL is how long an idle gallery session keeps its cursors.
	SessionTTL      time.Duration `env:"GALLERY_SESSION_TTL,default=30m" validate:"min=1s"`
	PartitionPolicy string        `env:"GALLERY_PARTITION_POLICY,default=merge" validate:"oneof=merge roundrobin"`
	// FallbackFile holds one image URL per line. Empty uses the built-in list.
	FallbackFile string `env:"GALLERY_FALLBACK_FILE"`
}

func (c *Config) Policy() PartitionPolicy {
	policy, err := ParsePartitionPolicy(c.PartitionPolicy)
	if err != nil {
		return PolicyMerge
	}
	return policy
}
