package shared

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	CacheTTL       time.Duration
	NearbyCacheTTL time.Duration
	ProfileTimeout time.Duration

	Wiki   WikiConfig
	Places PlacesConfig

	PrefetchAreas    []Area
	PrefetchLanguage string
	Workers          int
}

// WikiConfig holds endpoints for the three Wikimedia APIs. "{lang}" in a URL
// is replaced with the request language.
type WikiConfig struct {
	WikipediaAPI  string
	WikipediaREST string
	WikidataAPI   string
	CommonsAPI    string
	RPS           int
	Timeout       time.Duration
	MaxRetries    int
	UserAgent     string
}

type PlacesConfig struct {
	BaseURL    string
	APIKey     string
	RPS        int
	Timeout    time.Duration
	MaxRetries int
}

// Area is a prefetch target.
type Area struct {
	Lat          float64
	Lng          float64
	RadiusMeters int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "prod")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", "")
	v.SetDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/spots?parseTime=true&charset=utf8mb4,utf8&loc=UTC")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 900)
	v.SetDefault("NEARBY_CACHE_TTL_SECONDS", 300)
	v.SetDefault("PROFILE_TIMEOUT_SECONDS", 30)

	v.SetDefault("WIKIPEDIA_API_URL", "https://{lang}.wikipedia.org/w/api.php")
	v.SetDefault("WIKIPEDIA_REST_URL", "https://{lang}.wikipedia.org/api/rest_v1")
	v.SetDefault("WIKIDATA_API_URL", "https://www.wikidata.org/w/api.php")
	v.SetDefault("COMMONS_API_URL", "https://commons.wikimedia.org/w/api.php")
	v.SetDefault("WIKI_RPS", 10)
	v.SetDefault("WIKI_TIMEOUT_SECONDS", 10)
	v.SetDefault("WIKI_MAX_RETRIES", 1)
	v.SetDefault("WIKI_USER_AGENT", "spot-explorer/1.0 (https://github.com/spot-explorer)")

	v.SetDefault("GOOGLE_PLACES_BASE_URL", "https://places.googleapis.com/v1")
	v.SetDefault("GOOGLE_PLACES_API_KEY", "")
	v.SetDefault("PLACES_RPS", 5)
	v.SetDefault("PLACES_TIMEOUT_SECONDS", 10)
	v.SetDefault("PLACES_MAX_RETRIES", 1)

	v.SetDefault("PREFETCH_AREAS", "35.6586,139.7454,3000")
	v.SetDefault("PREFETCH_LANGUAGE", "ja")
	v.SetDefault("PREFETCH_WORKERS", 4)
}

// Load reads the environment, optionally layered over the file named by
// CONFIG_FILE (a .env style file).
func Load() Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if f := os.Getenv("CONFIG_FILE"); f != "" {
		v.SetConfigFile(f)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				log.Warn().Err(err).Str("file", f).Msg("config file ignored")
			}
		}
	}

	secs := func(k string) time.Duration { return time.Duration(v.GetInt(k)) * time.Second }

	areas, err := ParseAreas(v.GetString("PREFETCH_AREAS"))
	if err != nil {
		log.Warn().Err(err).Msg("PREFETCH_AREAS is invalid")
	}

	c := Config{
		AppEnv:         v.GetString("APP_ENV"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		HTTPAddr:       v.GetString("HTTP_ADDR"),
		MetricsAddr:    v.GetString("METRICS_ADDR"),
		MySQLDSN:       v.GetString("MYSQL_DSN"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPass:      v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		CacheTTL:       secs("CACHE_TTL_SECONDS"),
		NearbyCacheTTL: secs("NEARBY_CACHE_TTL_SECONDS"),
		ProfileTimeout: secs("PROFILE_TIMEOUT_SECONDS"),
		Wiki: WikiConfig{
			WikipediaAPI:  v.GetString("WIKIPEDIA_API_URL"),
			WikipediaREST: v.GetString("WIKIPEDIA_REST_URL"),
			WikidataAPI:   v.GetString("WIKIDATA_API_URL"),
			CommonsAPI:    v.GetString("COMMONS_API_URL"),
			RPS:           v.GetInt("WIKI_RPS"),
			Timeout:       secs("WIKI_TIMEOUT_SECONDS"),
			MaxRetries:    v.GetInt("WIKI_MAX_RETRIES"),
			UserAgent:     v.GetString("WIKI_USER_AGENT"),
		},
		Places: PlacesConfig{
			BaseURL:    v.GetString("GOOGLE_PLACES_BASE_URL"),
			APIKey:     v.GetString("GOOGLE_PLACES_API_KEY"),
			RPS:        v.GetInt("PLACES_RPS"),
			Timeout:    secs("PLACES_TIMEOUT_SECONDS"),
			MaxRetries: v.GetInt("PLACES_MAX_RETRIES"),
		},
		PrefetchAreas:    areas,
		PrefetchLanguage: v.GetString("PREFETCH_LANGUAGE"),
		Workers:          v.GetInt("PREFETCH_WORKERS"),
	}
	if c.Places.APIKey == "" {
		log.Warn().Msg("GOOGLE_PLACES_API_KEY is empty; nearby search will use the catalogue")
	}
	return c
}

// ParseAreas parses "lat,lng,radius;lat,lng,radius". Radius is in meters.
func ParseAreas(s string) ([]Area, error) {
	var out []Area
	for _, chunk := range strings.Split(s, ";") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		parts := strings.Split(chunk, ",")
		if len(parts) != 3 {
			return out, fmt.Errorf("area %q: want lat,lng,radius", chunk)
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		rad, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err := errors.Join(err1, err2, err3); err != nil {
			return out, fmt.Errorf("area %q: %w", chunk, err)
		}
		out = append(out, Area{Lat: lat, Lng: lng, RadiusMeters: rad})
	}
	return out, nil
}
