package email

type SMTPConfig struct {
	Host     string
	Port     int
	UserName string
	Password string
}

// Enabled 未配置 SMTP 服务器时不发送邮件
func (c *SMTPConfig) Enabled() bool {
	return c.Host != "" && c.UserName != ""
}

func GenerateTestConfig() *SMTPConfig {
	return &SMTPConfig{
		Host:     "smtp.example.org",
		Port:     25,
		UserName: "pipeline@example.org",
		Password: "secret",
	}
}
