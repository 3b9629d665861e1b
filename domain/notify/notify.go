package notify

import (
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/utils"
	"pseudoenzymes-backend/utils/email"
	"sync"
)

/*
Setting Notifier 的依赖，MQ 与 Email 均可为空，为空时对应的通知被跳过

	Recipient 汇总邮件的收件人，逗号分隔，为空时不发邮件；
*/
type Setting struct {
	MQ        *BrokerConfig
	Email     *email.Sender
	Recipient string
	Logger    *logrus.Logger
}

type publisher interface {
	Publish(queueName string, obj any) error
	Consume(queueName string, handler func(msg *amqp.Delivery) error) error
	Close() error
}

/*
Notifier 每个步骤结束时发布一条 StepEvent，运行结束时发送汇总邮件。
通知失败只记录日志，不影响导入结果。
*/
type Notifier struct {
	setting Setting
	mq      publisher

	lock   sync.Mutex
	events []StepEvent
}

func New(setting *Setting) (*Notifier, error) {
	s := *setting
	if s.Logger == nil {
		s.Logger = logging.Default()
	}

	n := &Notifier{setting: s}
	if s.MQ != nil && s.MQ.Enabled() {
		mq, err := dialBroker(s.MQ, []string{QueueIngestEvents}, s.Logger)
		if err != nil {
			// 连不上 Broker 时只是不发布事件
			s.Logger.WithError(err).Warnf("connect rabbit mq [%s:%s] fail, step events will not be published", s.MQ.Host, s.MQ.Port)
		} else {
			n.mq = mq
		}
	}
	return n, nil
}

func (n *Notifier) StepFinished(event StepEvent) {
	n.lock.Lock()
	n.events = append(n.events, event)
	n.lock.Unlock()

	if n.mq == nil {
		return
	}
	if err := n.mq.Publish(QueueIngestEvents, event); err != nil {
		n.setting.Logger.WithError(err).Warnf("publish event of step [%s] fail", event.Step)
	}
}

// Events 返回目前收到的所有步骤事件
func (n *Notifier) Events() []StepEvent {
	n.lock.Lock()
	defer n.lock.Unlock()
	return append([]StepEvent(nil), n.events...)
}

/*
RunFinished 发送本次运行的汇总邮件并清空已记录的事件
*/
func (n *Notifier) RunFinished() error {
	n.lock.Lock()
	events := n.events
	n.events = nil
	n.lock.Unlock()

	recipients := email.Recipients(n.setting.Recipient)
	if n.setting.Email == nil || len(recipients) == 0 || len(events) == 0 {
		return nil
	}

	err := n.setting.Email.SendHtml(recipients, runSubject(events), renderRunPage(events), renderRunText(events))
	if err != nil {
		n.setting.Logger.WithError(err).Warn("send run summary email fail")
	}
	return err
}

/*
Watch 消费 ingest_events，每条事件调用 callback，直到 stop 被关闭
*/
func (n *Notifier) Watch(stop <-chan struct{}, callback func(event StepEvent)) error {
	if n.mq == nil {
		return ErrQueueNotFound
	}

	err := n.mq.Consume(QueueIngestEvents, func(msg *amqp.Delivery) error {
		event, err := DecodeEvent(msg)
		if err != nil {
			return err
		}
		callback(event)
		return nil
	})
	if err != nil {
		return utils.WrapError(err, "listen on ingest events fail")
	}

	<-stop
	return nil
}

func (n *Notifier) Close() error {
	if n.mq == nil {
		return nil
	}
	return n.mq.Close()
}
