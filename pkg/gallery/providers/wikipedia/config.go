package wikipedia

type Config struct {
	Articles           []string `env:"WIKIPEDIA_ARTICLES,default=Doom (1993 video game)"`
	APIURL             string   `env:"WIKIPEDIA_API_URL,default=https://en.wikipedia.org/w/api.php" validate:"url"`
	ResolveConcurrency int      `env:"WIKIPEDIA_RESOLVE_CONCURRENCY,default=8" validate:"min=1,max=64"`
}
