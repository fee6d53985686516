package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL   = "https://adaptogen.com.br"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	DefaultLanguage  = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Category is a listing endpoint. Paginated categories are walked through
// PageURL, which must contain a single %d verb for the page number.
type Category struct {
	Name      string `yaml:"name"`
	SeedURL   string `yaml:"seed_url"`
	Paginated bool   `yaml:"paginated"`
	PageURL   string `yaml:"page_url"`
}

func (c Category) URLForPage(page int) string {
	return fmt.Sprintf(c.PageURL, page)
}

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Config struct {
	BaseURL    string
	Categories []Category

	UserAgent      string
	Accept         string
	AcceptLanguage string
	HTTPTimeout    time.Duration
	RequestDelay   time.Duration
	DelayJitter    time.Duration
	Retry          RetryPolicy
	MaxPages       int
	RespectRobots  bool

	URLMapPath  string
	DatasetPath string

	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration
	OpenAIKey   string
	MetricsPort string
	WorkerCount int
}

// DefaultCategories returns the adaptogen.com.br seeds in collection order.
func DefaultCategories(baseURL string) []Category {
	baseURL = strings.TrimRight(baseURL, "/")
	return []Category{
		{Name: "pre-treino", SeedURL: baseURL + "/pre-treino"},
		{Name: "snacks", SeedURL: baseURL + "/proteinas/snacks-proteicos/"},
		{Name: "proteinas", SeedURL: baseURL + "/proteinas/", Paginated: true, PageURL: baseURL + "/proteinas/?sf_paged=%d"},
		{Name: "creatinas", SeedURL: baseURL + "/creatina/"},
	}
}

func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Categories:     DefaultCategories(DefaultBaseURL),
		UserAgent:      DefaultUserAgent,
		Accept:         DefaultAccept,
		AcceptLanguage: DefaultLanguage,
		HTTPTimeout:    30 * time.Second,
		RequestDelay:   2 * time.Second,
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     20 * time.Second,
		},
		MaxPages:    200,
		URLMapPath:  "json/produtos_urls.json",
		DatasetPath: "dados_extraidos/produtos_nutricionais.csv",
		CacheTTL:    24 * time.Hour,
		WorkerCount: 5,
	}
}

// Load builds the configuration from .env, the environment and the optional
// SITE_CONFIG yaml file, in that order of precedence for the site layout.
func Load() (*Config, error) {
	// Carrega .env da raiz do projeto
	_ = godotenv.Load("../../.env")
	// Se não encontrar, tenta no diretório atual
	_ = godotenv.Load()

	cfg := Default()
	var errs []error

	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", cfg.BaseURL), "/")
	cfg.Categories = DefaultCategories(cfg.BaseURL)
	cfg.UserAgent = getEnv("USER_AGENT", cfg.UserAgent)
	cfg.HTTPTimeout = getDuration("HTTP_TIMEOUT", cfg.HTTPTimeout, &errs)
	cfg.RequestDelay = getDuration("REQUEST_DELAY", cfg.RequestDelay, &errs)
	cfg.DelayJitter = getDuration("REQUEST_JITTER", cfg.DelayJitter, &errs)
	cfg.Retry.MaxAttempts = getInt("RETRY_MAX_ATTEMPTS", cfg.Retry.MaxAttempts, &errs)
	cfg.Retry.InitialBackoff = getDuration("RETRY_INITIAL_BACKOFF", cfg.Retry.InitialBackoff, &errs)
	cfg.Retry.MaxBackoff = getDuration("RETRY_MAX_BACKOFF", cfg.Retry.MaxBackoff, &errs)
	cfg.MaxPages = getInt("MAX_PAGES", cfg.MaxPages, &errs)
	cfg.RespectRobots = getBool("RESPECT_ROBOTS", cfg.RespectRobots, &errs)
	cfg.URLMapPath = getEnv("URL_MAP_PATH", cfg.URLMapPath)
	cfg.DatasetPath = getEnv("DATASET_PATH", cfg.DatasetPath)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.CacheTTL = getDuration("CACHE_TTL", cfg.CacheTTL, &errs)
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.MetricsPort = os.Getenv("METRICS_PORT")
	cfg.WorkerCount = getInt("WORKER_COUNT", cfg.WorkerCount, &errs)

	if path := os.Getenv("SITE_CONFIG"); path != "" {
		if err := cfg.applySiteFile(path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type siteFile struct {
	BaseURL    string     `yaml:"base_url"`
	Categories []Category `yaml:"categories"`
}

func (c *Config) applySiteFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read site config: %w", err)
	}
	var site siteFile
	if err := yaml.Unmarshal(data, &site); err != nil {
		return fmt.Errorf("failed to parse site config: %w", err)
	}
	if site.BaseURL != "" {
		c.BaseURL = strings.TrimRight(site.BaseURL, "/")
		c.Categories = DefaultCategories(c.BaseURL)
	}
	if len(site.Categories) > 0 {
		c.Categories = site.Categories
	}
	return nil
}

func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("config: no categories configured")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return errors.New("config: category without name")
		}
		if seen[cat.Name] {
			return fmt.Errorf("config: duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		if cat.Paginated {
			if strings.Count(cat.PageURL, "%d") != 1 {
				return fmt.Errorf("config: category %q page_url must contain one %%d", cat.Name)
			}
		} else if cat.SeedURL == "" {
			return fmt.Errorf("config: category %q has no seed_url", cat.Name)
		}
	}
	if c.RequestDelay <= 0 {
		return errors.New("config: REQUEST_DELAY must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("config: RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		return errors.New("config: RETRY_MAX_BACKOFF is lower than RETRY_INITIAL_BACKOFF")
	}
	return nil
}

// CategoryNames returns the category names in collection order.
func (c *Config) CategoryNames() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getDuration(k string, d time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", k, err))
		return d
	}
	return parsed
}

func getInt(k string, d int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", k, err))
		return d
	}
	return parsed
}

func getBool(k string, d bool, errs *[]error) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", k, err))
		return d
	}
	return parsed
}
