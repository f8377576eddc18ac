package commands

import (
	"os"
	"time"

	"catemirror/internal/components/telemetry"
	"catemirror/internal/configutil"
	"catemirror/internal/crawler"
	"catemirror/internal/scrapers/cate"
	"catemirror/internal/scrapers/cate/extract"
)

type SecondaryConfig struct {
	BaseUrl string `json:"base_url"`
	Token   string `json:"token"`
}

type SiteConfig struct {
	// Fragment is matched against the host and path of a page.
	Fragment string `json:"fragment"`
	// Parser is one of lecturer, architecture, operating-systems, networks
	// or generic.
	Parser string `json:"parser"`
}

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Year     string `json:"year"`
	Class    string `json:"class"`
	Period   int    `json:"period"`

	Root      string `json:"root"`
	Catalog   string `json:"catalog"`
	Discover  bool   `json:"discover"`
	Overwrite bool   `json:"overwrite"`
	MaxDepth  int    `json:"max_depth"`

	RequestsPerSecond   float64         `json:"requests_per_second"`
	TimeoutSeconds      int             `json:"timeout_seconds"`
	BrowserTransport    bool            `json:"browser_transport"`
	HttpDumpDir         string          `json:"http_dump_dir"`
	ExternalAuthDomains []string        `json:"external_auth_domains"`
	Secondary           SecondaryConfig `json:"secondary"`
	Sites               []SiteConfig    `json:"sites"`

	Telemetry telemetry.Config `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		BaseUrl:             "https://cate.doc.ic.ac.uk",
		Year:                "2014",
		Class:               "c2",
		Period:              1,
		Root:                ".",
		MaxDepth:            crawler.DefaultMaxDepth,
		RequestsPerSecond:   2,
		TimeoutSeconds:      30,
		ExternalAuthDomains: []string{"doc.ic.ac.uk"},
		Secondary: SecondaryConfig{
			BaseUrl: "https://piazza.com",
		},
	}
}

// loadConfig reads the config file (and its .local override) on top of the
// defaults, credentials missing from it are read from the environment.
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfigOr(path, defaultConfig())
	if err != nil {
		return Config{}, err
	}

	err = configutil.LoadDotenv(".env", ".env.local")
	if err != nil {
		return Config{}, err
	}
	cfg.Username = configutil.EnvOr(cfg.Username, "CATE_USERNAME")
	cfg.Password = configutil.EnvOr(cfg.Password, "CATE_PASSWORD")
	cfg.Secondary.Token = configutil.EnvOr(cfg.Secondary.Token, "CATE_SECONDARY_TOKEN")
	return cfg, nil
}

func (c Config) sessionOptions() (cate.SessionOptions, error) {
	opts := cate.SessionOptions{
		BaseUrl:  c.BaseUrl,
		Username: c.Username,
		Password: c.Password,
		Year:     c.Year,
		Class:    c.Class,
		Period:   c.Period,
		Secondary: cate.SecondaryOptions{
			BaseUrl: c.Secondary.BaseUrl,
			Token:   c.Secondary.Token,
		},
		ExternalAuthDomains: c.ExternalAuthDomains,
		RequestsPerSecond:   c.RequestsPerSecond,
		Timeout:             time.Duration(c.TimeoutSeconds) * time.Second,
		BrowserTransport:    c.BrowserTransport,
	}
	if c.HttpDumpDir != "" {
		output, err := telemetry.NewFilesystemOutput(c.HttpDumpDir)
		if err != nil {
			return cate.SessionOptions{}, err
		}
		opts.HttpDump = output
	}
	return opts, nil
}

func (c Config) sites(tel telemetry.API) (extract.Sites, error) {
	var custom []extract.Site
	for _, site := range c.Sites {
		parser, err := extract.NewParser(site.Parser, tel)
		if err != nil {
			return extract.Sites{}, err
		}
		custom = append(custom, extract.Site{Fragment: site.Fragment, Extractor: parser})
	}
	return extract.DefaultSites(tel).With(custom...), nil
}

func ensureRoot(root string) error {
	return os.MkdirAll(root, 0755)
}
