package email

import (
	"gopkg.in/gomail.v2"
	"pseudoenzymes-backend/utils"
	"strings"
)

type Sender struct {
	config SMTPConfig
	sender gomail.Sender
}

func NewSender(config *SMTPConfig) *Sender {
	return &Sender{config: *config}
}

// NewSenderWith 使用给定的 gomail.Sender 投递，不建立 SMTP 连接
func NewSenderWith(config *SMTPConfig, sender gomail.Sender) *Sender {
	return &Sender{config: *config, sender: sender}
}

/*
Recipients 把逗号分隔的地址列表拆开，忽略空项
*/
func Recipients(list string) []string {
	ret := make([]string, 0)
	for _, addr := range strings.Split(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			ret = append(ret, addr)
		}
	}
	return ret
}

/*
SendHtml 向 recipients 发送一封 HTML 邮件，另附 plain 作为纯文本备选正文（可为空）
*/
func (s *Sender) SendHtml(recipients []string, subject string, htmlContent string, plain string) error {
	if len(recipients) == 0 {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.config.UserName, "pseudoenzymes")
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	if plain != "" {
		msg.SetBody("text/plain", plain)
		msg.AddAlternative("text/html", htmlContent)
	} else {
		msg.SetBody("text/html", htmlContent)
	}

	to := strings.Join(recipients, ",")
	if s.sender != nil {
		return utils.WrapErrorf(gomail.Send(s.sender, msg), "send email to [%s] fail", to)
	}

	dialer := gomail.NewDialer(s.config.Host, s.config.Port, s.config.UserName, s.config.Password)
	return utils.WrapErrorf(dialer.DialAndSend(msg), "send email to [%s] fail", to)
}
