package config

const (
	EnvKeyDatabasePassword  = "PSEUDOENZYMES_DB_PASSWORD"
	EnvKeyRabbitMQPassword  = "PSEUDOENZYMES_RABBITMQ_PASSWORD"
	EnvKeyEmailSMTPPassword = "PSEUDOENZYMES_SMTP_PASSWORD"
	EnvKeyNeo4jPassword     = "PSEUDOENZYMES_NEO4J_PASSWORD"
	EnvKeyServerPort        = "PSEUDOENZYMES_SERVER_PORT"
)
