package config

import (
	"github.com/DataDog/datadog-go/v5/statsd"
)

const (
	AI_INSTRUCTIONS = `You are a research assistant AI designed to help researchers. You can assist with article generation, summarizing research papers, answering research-related questions, and generating ideas for experiments. For image generation requests, I will handle them separately. Provide detailed, accurate, and professional responses suitable for academic and research purposes.`
)

// Config is built once in main and injected into every constructor.
type Config struct {
	DataDogClient     *statsd.Client
	Environment       string
	GeminiAPIKey      string
	GeminiAPIEndpoint string
	ListenAddress     string
	MongoDBConnection string
	MongoDBName       string
	NebiusAPIKey      string
	NebiusAPIEndpoint string
	RazorpayKeyID     string
	RazorpaySecret    string
	Redis             Redis
}

type Redis struct {
	Host     string
	Port     string
	Password string
}
