package mastodon

type Config struct {
	// InstanceURL enables the hashtag tier when set.
	InstanceURL string   `env:"MASTODON_INSTANCE_URL" validate:"omitempty,url"`
	Tags        []string `env:"MASTODON_TAGS,default=doom"`
}
