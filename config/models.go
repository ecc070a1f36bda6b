package config

// Config holds the configuration of the application.
// Use LoadConfig to create a populated, validated instance.
type Config struct {
	Lookup   LookupConfig   `mapstructure:"lookup"`
	Sparql   SparqlConfig   `mapstructure:"sparql"`
	NLP      NLPConfig      `mapstructure:"nlp"`
	Gallica  GallicaConfig  `mapstructure:"gallica"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// LookupConfig configures the DBpedia Lookup (entity search) client.
type LookupConfig struct {
	Endpoint string `mapstructure:"endpoint" validate:"required,url"`
	Timeout  int    `mapstructure:"timeout"`
	RetryMax int    `mapstructure:"retry_max"`
}

// SparqlConfig configures the SPARQL (geographic attributes) client.
type SparqlConfig struct {
	Endpoint string `mapstructure:"endpoint" validate:"required,url"`
	Timeout  int    `mapstructure:"timeout"`
	RetryMax int    `mapstructure:"retry_max"`
}

// NLPConfig points at the external NER service used for entity extraction.
type NLPConfig struct {
	ServerURL string `mapstructure:"server_url" validate:"required,url"`
	Language  string `mapstructure:"language"`
}

type GallicaConfig struct {
	Timeout int `mapstructure:"timeout"`
}

type PipelineConfig struct {
	// Workers bounds the resolution fan-out. 1 means sequential.
	Workers int `mapstructure:"workers" validate:"gte=1"`
	// H3Resolution is the cell resolution used when binning coordinates
	// for density rendering.
	H3Resolution int `mapstructure:"h3_resolution" validate:"gte=0,lte=15"`
}

type CacheConfig struct {
	// Type is "memory" or "sqlite". The sqlite cache persists resolutions
	// across runs; memory lives for the process only.
	Type string `mapstructure:"type" validate:"oneof=memory sqlite"`
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"gte=1,lte=65535"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
