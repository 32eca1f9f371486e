package commons

type Config struct {
	Search string `env:"COMMONS_SEARCH,default=doom game" validate:"required"`
	APIURL string `env:"COMMONS_API_URL,default=https://commons.wikimedia.org/w/api.php" validate:"url"`
}
