package reddit

type Config struct {
	Subreddits   []string `env:"REDDIT_SUBREDDITS,default=Doom;classicdoom;Doom_Eternal;DoomMods"`
	SortBy       string   `env:"REDDIT_SORT,default=hot" validate:"oneof=hot new top rising"`
	TopPeriod    string   `env:"REDDIT_TOP_PERIOD,default=week" validate:"oneof=hour day week month year all"`
	ClientID     string   `env:"REDDIT_CLIENT_ID"`
	ClientSecret string   `env:"REDDIT_CLIENT_SECRET" validate:"required_with=ClientID"`
}
