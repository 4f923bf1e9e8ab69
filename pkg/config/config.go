package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port string `mapstructure:"port" validate:"required"`
	// Room is the single shared room of the deployment
	Room string `mapstructure:"room" validate:"required"`
	// PeerBuffer outbound events queued per websocket before the peer is dropped
	PeerBuffer int `mapstructure:"peer_buffer" validate:"gte=0"`

	Store StoreConfig `mapstructure:"store"`
	Feed  FeedConfig  `mapstructure:"feed"`

	MongoSQL DatabaseConfig `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Badger   BadgerConfig   `mapstructure:"badger"`
}

// StoreConfig selects the message store
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=mongo badger"`
}

// FeedConfig selects the change feed transport
type FeedConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=redis kafka memory"`
}

// Review definition review_service YAML structure
type Review struct {
	Port       string         `mapstructure:"port" validate:"required"`
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	MinIO      MinIOConfig    `mapstructure:"minio"`
	Aladin     AladinConfig   `mapstructure:"aladin"`
}

// Member definition member_service YAML structure
type Member struct {
	Port       string        `mapstructure:"port" validate:"required"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	LinkTTL    time.Duration `mapstructure:"link_ttl"`
	// PublicURL is where the sign-in link points to
	PublicURL string `mapstructure:"public_url" validate:"required"`

	PostgreSQL  DatabaseConfig `mapstructure:"pg"`
	RedisMember RedisConfig    `mapstructure:"redis"`
	RabbitMQ    RabbitMQConfig `mapstructure:"rabbitmq"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	RedisDB int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// BadgerConfig definition badger setting
type BadgerConfig struct {
	Path string `mapstructure:"path"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	BucketName    string        `mapstructure:"bucket_name"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// RabbitMQConfig definition rabbitmq setting
type RabbitMQConfig struct {
	IP         string `mapstructure:"ip"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	QueueName  string `mapstructure:"queue_name"`
	RetryCount int    `mapstructure:"retry_count"`
}

// AladinConfig definition book search api setting
type AladinConfig struct {
	URL    string `mapstructure:"url" validate:"required,url"`
	TTBKey string `mapstructure:"ttb_key"`
}
