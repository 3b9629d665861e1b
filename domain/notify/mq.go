package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"net/url"
	"pseudoenzymes-backend/utils"
	"sync"
	"time"
)

var (
	ErrClosed        = errors.New("broker has been closed")
	ErrQueueNotFound = errors.New("queue not declared on broker")
)

const appID = "pseudoenzymes"

/*
BrokerConfig RabbitMQ 连接参数，Host 为空表示不发布事件
*/
type BrokerConfig struct {
	User     string
	Password string
	Host     string
	Port     string
}

func (c *BrokerConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/",
	}
	return u.String()
}

func (c *BrokerConfig) Enabled() bool {
	return c.Host != ""
}

func GenerateTestBrokerConfig() BrokerConfig {
	return BrokerConfig{User: "guest", Password: "guest", Host: "localhost", Port: "5672"}
}

/*
eventBroker 一条连接上的持久化队列。
发布共用一个 channel；每个被消费的队列各占一个 channel，关闭该 channel 即停止消费。
*/
type eventBroker struct {
	logger *logrus.Logger
	conn   *amqp.Connection
	queues map[string]amqp.Queue

	publishLock sync.Mutex
	publishCh   *amqp.Channel

	consumeLock sync.Mutex
	consumers   map[string]*amqp.Channel

	closeOnce sync.Once
}

func dialBroker(config *BrokerConfig, queueNames []string, logger *logrus.Logger) (*eventBroker, error) {
	conn, err := amqp.Dial(config.URL())
	if err != nil {
		return nil, utils.WrapErrorf(err, "dial broker [%s:%s] fail", config.Host, config.Port)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, utils.WrapError(err, "open publish channel fail")
	}

	queues := make(map[string]amqp.Queue, len(queueNames))
	for _, name := range queueNames {
		// durable, 不自动删除, 非独占
		q, err := ch.QueueDeclare(name, true, false, false, false, nil)
		if err != nil {
			_ = conn.Close()
			return nil, utils.WrapErrorf(err, "declare queue [%s] fail", name)
		}
		queues[name] = q
	}

	return &eventBroker{
		logger:    logger,
		conn:      conn,
		queues:    queues,
		publishCh: ch,
		consumers: make(map[string]*amqp.Channel),
	}, nil
}

/*
Publish 把 obj 编码为 JSON 持久化发布到 queueName
*/
func (b *eventBroker) Publish(queueName string, obj any) error {
	queue, ok := b.queues[queueName]
	if !ok {
		return ErrQueueNotFound
	}

	body, err := json.Marshal(obj)
	if err != nil {
		return utils.WrapError(err, "encode message fail")
	}

	b.publishLock.Lock()
	defer b.publishLock.Unlock()

	err = b.publishCh.Publish("", queue.Name, false, false, amqp.Publishing{
		MessageId:    uuid.NewString(),
		AppId:        appID,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	return utils.WrapErrorf(err, "publish to [%s] fail", queueName)
}

/*
Consume 在后台消费 queueName。handler 返回 nil 时确认消息，否则拒绝且不重新入队。
同一队列再次调用时先停止旧的消费者。
*/
func (b *eventBroker) Consume(queueName string, handler func(msg *amqp.Delivery) error) error {
	queue, ok := b.queues[queueName]
	if !ok {
		return ErrQueueNotFound
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return utils.WrapError(err, "open consume channel fail")
	}
	tag := fmt.Sprintf("%s-%s", appID, uuid.NewString())
	deliveries, err := ch.Consume(queue.Name, tag, false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return utils.WrapErrorf(err, "consume [%s] fail", queueName)
	}

	b.consumeLock.Lock()
	if b.consumers == nil {
		b.consumeLock.Unlock()
		_ = ch.Close()
		return ErrClosed
	}
	if old, ok := b.consumers[queueName]; ok {
		_ = old.Close()
	}
	b.consumers[queueName] = ch
	b.consumeLock.Unlock()

	go func() {
		for msg := range deliveries {
			if err := handler(&msg); err != nil {
				b.logger.WithError(err).Warnf("drop message [%s] from [%s]", msg.MessageId, queueName)
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		}
		b.logger.Infof("consumer [%s] on [%s] stopped", tag, queueName)
	}()

	return nil
}

func (b *eventBroker) Close() error {
	err := ErrClosed
	b.closeOnce.Do(func() {
		b.consumeLock.Lock()
		for _, ch := range b.consumers {
			_ = ch.Close()
		}
		b.consumers = nil
		b.consumeLock.Unlock()

		err = b.conn.Close()
	})
	return err
}
