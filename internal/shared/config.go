package shared

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string `toml:"app_env"`
	HTTPAddr    string `toml:"http_addr"`
	MetricsAddr string `toml:"metrics_addr"`
	LogFile     string `toml:"log_file"`

	// upstream places API (proxy side)
	PlacesBase     string        `toml:"places_base_url"`
	GoogleKey      string        `toml:"google_api_key"`
	PlacesRPS      int           `toml:"places_rps"`
	SearchRadius   int           `toml:"search_radius"`
	PhotoMaxWidth  int           `toml:"photo_max_width"`
	PlacesCacheTTL time.Duration `toml:"-"`

	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	RedisPass string `toml:"redis_password"`

	// saved-list record backend: sqlite|redis|mysql|postgres
	StoreBackend string `toml:"store_backend"`
	SavedRecord  string `toml:"saved_record"`
	SQLitePath   string `toml:"sqlite_path"`
	MySQLDSN     string `toml:"mysql_dsn"`
	PostgresURL  string `toml:"postgres_url"`

	// terminal client
	ProxyBase     string        `toml:"proxy_base_url"`
	UseSeedData   bool          `toml:"use_seed_data"`
	SeedDelay     time.Duration `toml:"-"`
	SettleDelay   time.Duration `toml:"-"`
	PixelsPerCell int           `toml:"pixels_per_cell"`
	Lat           string        `toml:"lat"`
	Lng           string        `toml:"lng"`
	GeoIPURL      string        `toml:"geoip_url"`
	PhotoWorkers  int           `toml:"photo_workers"`
}

// fileDurations carries the duration fields of the TOML file as strings
// ("800ms", "15m").
type fileDurations struct {
	PlacesCacheTTL string `toml:"places_cache_ttl"`
	SeedDelay      string `toml:"seed_delay"`
	SettleDelay    string `toml:"settle_delay"`
}

// Dir is the per-user state directory (~/.cafe-finder).
func Dir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cafe-finder")
	}
	return ".cafe-finder"
}

func Defaults() Config {
	dir := Dir()
	return Config{
		AppEnv:         "prod",
		HTTPAddr:       ":8080",
		LogFile:        filepath.Join(dir, "cafes.log"),
		PlacesBase:     "https://maps.googleapis.com/maps/api/place",
		PlacesRPS:      5,
		SearchRadius:   1500,
		PhotoMaxWidth:  400,
		PlacesCacheTTL: 10 * time.Minute,
		RedisDB:        0,
		StoreBackend:   "sqlite",
		SavedRecord:    "savedCafes",
		SQLitePath:     filepath.Join(dir, "cafes.db"),
		MySQLDSN:       "root:root@tcp(localhost:3306)/cafes?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		ProxyBase:      "http://localhost:8080",
		UseSeedData:    true,
		SeedDelay:      800 * time.Millisecond,
		SettleDelay:    200 * time.Millisecond,
		PixelsPerCell:  8,
		PhotoWorkers:   3,
	}
}

// Load builds the config from defaults, then the optional TOML file
// (CAFES_CONFIG or ~/.cafe-finder/config.toml), then the environment.
func Load() Config {
	c := Defaults()
	path := env("CAFES_CONFIG", filepath.Join(Dir(), "config.toml"))
	if err := c.MergeFile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config file ignored")
	}
	c.MergeEnv()
	if c.GoogleKey == "" {
		log.Debug().Msg("GOOGLE_API_KEY is empty")
	}
	return c
}

// MergeFile overlays values present in the TOML file at path. A missing file
// is not an error. c is only changed when the whole file parses.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	next := *c
	if err := toml.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	var d fileDurations
	if err := toml.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	for _, f := range []struct {
		raw string
		dst *time.Duration
	}{
		{d.PlacesCacheTTL, &next.PlacesCacheTTL},
		{d.SeedDelay, &next.SeedDelay},
		{d.SettleDelay, &next.SettleDelay},
	} {
		if f.raw == "" {
			continue
		}
		v, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", f.raw, err)
		}
		*f.dst = v
	}
	*c = next
	return nil
}

func (c *Config) MergeEnv() {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	ms := func(k string, def time.Duration) time.Duration {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return time.Duration(n) * time.Millisecond
			}
		}
		return def
	}
	c.AppEnv = env("APP_ENV", c.AppEnv)
	c.HTTPAddr = env("HTTP_ADDR", c.HTTPAddr)
	c.MetricsAddr = env("METRICS_ADDR", c.MetricsAddr)
	c.LogFile = env("LOG_FILE", c.LogFile)
	c.PlacesBase = env("PLACES_BASE_URL", c.PlacesBase)
	c.GoogleKey = env("GOOGLE_API_KEY", c.GoogleKey)
	c.PlacesRPS = atoi("PLACES_RPS", c.PlacesRPS)
	c.SearchRadius = atoi("SEARCH_RADIUS", c.SearchRadius)
	c.PhotoMaxWidth = atoi("PHOTO_MAX_WIDTH", c.PhotoMaxWidth)
	c.PlacesCacheTTL = time.Duration(atoi("PLACES_CACHE_TTL_SECONDS", int(c.PlacesCacheTTL.Seconds()))) * time.Second
	c.RedisAddr = env("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = env("REDIS_PASSWORD", c.RedisPass)
	c.RedisDB = atoi("REDIS_DB", c.RedisDB)
	c.StoreBackend = env("STORE_BACKEND", c.StoreBackend)
	c.SavedRecord = env("SAVED_RECORD", c.SavedRecord)
	c.SQLitePath = env("SQLITE_PATH", c.SQLitePath)
	c.MySQLDSN = env("MYSQL_DSN", c.MySQLDSN)
	c.PostgresURL = env("DATABASE_URL", c.PostgresURL)
	c.ProxyBase = env("PROXY_BASE_URL", c.ProxyBase)
	if v := os.Getenv("USE_SEED_DATA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UseSeedData = b
		}
	}
	c.SeedDelay = ms("SEED_DELAY_MS", c.SeedDelay)
	c.SettleDelay = ms("SETTLE_DELAY_MS", c.SettleDelay)
	c.PixelsPerCell = atoi("PIXELS_PER_CELL", c.PixelsPerCell)
	c.Lat = env("LAT", c.Lat)
	c.Lng = env("LNG", c.Lng)
	c.GeoIPURL = env("GEOIP_URL", c.GeoIPURL)
	c.PhotoWorkers = atoi("PHOTO_WORKERS", c.PhotoWorkers)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
