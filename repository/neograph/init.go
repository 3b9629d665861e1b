package neograph

import (
	"fmt"
	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"github.com/sirupsen/logrus"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/utils"
)

type Neo4jConfig struct {
	Host string
	Port int
	User string
	Pwd  string
}

func (c *Neo4jConfig) URL() string {
	return fmt.Sprintf("neo4j://%s:%d", c.Host, c.Port)
}

type Config struct {
	Neo4j Neo4jConfig
}

func GenerateTestConfig() *Config {
	return &Config{Neo4j: Neo4jConfig{
		Host: "localhost",
		Port: 7687,
		User: "neo4j",
		Pwd:  "neo4j",
	}}
}

/*
Client 对 neo4j.Driver 的简单封装，所有语句在写事务中执行
*/
type Client struct {
	driver neo4j.Driver
	logger *logrus.Logger
}

func New(config *Config) (*Client, error) {
	driver, err := neo4j.NewDriver(config.Neo4j.URL(), neo4j.BasicAuth(config.Neo4j.User, config.Neo4j.Pwd, ""))
	if err != nil {
		return nil, utils.WrapErrorf(err, "create neo4j driver for [%s] fail", config.Neo4j.URL())
	}

	if err = driver.VerifyConnectivity(); err != nil {
		_ = driver.Close()
		return nil, utils.WrapErrorf(err, "connect neo4j [%s] fail", config.Neo4j.URL())
	}

	return &Client{driver: driver, logger: logging.Default()}, nil
}

func (c *Client) Execute(cypher string, params map[string]interface{}) (neo4j.ResultSummary, error) {
	session := c.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	summary, err := session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		result, err := tx.Run(cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume()
	})
	if err != nil {
		return nil, utils.WrapError(err, "execute cypher fail")
	}

	c.logger.Debugf("cypher executed: %s", cypher)
	return summary.(neo4j.ResultSummary), nil
}

func (c *Client) Close() error {
	return c.driver.Close()
}
