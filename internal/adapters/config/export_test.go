package config

// NewLoaderFrom builds a Loader over a fixed environment.
func NewLoaderFrom(env map[string]string, dotenv string) *Loader {
	return &Loader{
		DotEnv: dotenv,
		lookup: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}
}
