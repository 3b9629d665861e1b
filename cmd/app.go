package cmd

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"pseudoenzymes-backend/config"
	"pseudoenzymes-backend/domain/bulkload"
	"pseudoenzymes-backend/domain/enzyme"
	"pseudoenzymes-backend/domain/graph"
	"pseudoenzymes-backend/domain/linker"
	"pseudoenzymes-backend/domain/msa"
	"pseudoenzymes-backend/domain/notify"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/domain/pipeline"
	"pseudoenzymes-backend/domain/reconcile"
	"pseudoenzymes-backend/domain/report"
	"pseudoenzymes-backend/logging"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/repository/neograph"
	"pseudoenzymes-backend/repository/remote"
	"pseudoenzymes-backend/utils"
	"pseudoenzymes-backend/utils/email"
	"time"
)

func databaseConf(c *config.Config) *biodb.Config {
	d := c.Database
	return &biodb.Config{
		Driver: d.Driver,
		MySQL: biodb.MySQLConfig{
			User:     d.User,
			Password: d.Password,
			Host:     d.Host,
			Port:     d.Port,
			Database: d.Database,
		},
		Postgres: biodb.PostgresConfig{
			User:     d.User,
			Password: d.Password,
			Host:     d.Host,
			Port:     d.Port,
			Database: d.Database,
		},
		SQLite:          biodb.SQLiteConfig{Path: d.Path},
		CheckMigration:  d.CheckMigration,
		InsertBatchSize: c.Batch.InsertSize,
		LookupChunkSize: c.Batch.LookupChunkSize,
	}
}

func remoteConf(c *config.Config) *remote.Config {
	return &remote.Config{
		EntryURL: c.Remote.UniProtEntryURL,
		Timeout:  time.Duration(c.Remote.TimeoutSeconds) * time.Second,
	}
}

func mqConf(c *config.Config) *notify.BrokerConfig {
	mq := c.Notify.RabbitMQ
	return &notify.BrokerConfig{User: mq.User, Password: mq.Password, Host: mq.Host, Port: mq.Port}
}

func smtpConf(c *config.Config) *email.SMTPConfig {
	s := c.Notify.SMTP
	return &email.SMTPConfig{Host: s.Host, Port: s.Port, UserName: s.UserName, Password: s.Password}
}

func neographConf(c *config.Config) *neograph.Config {
	n := c.Neo4j
	return &neograph.Config{Neo4j: neograph.Neo4jConfig{Host: n.Host, Port: n.Port, User: n.User, Pwd: n.Password}}
}

/*
app 一次命令执行所需的全部组件，由配置一次性装配
*/
type app struct {
	config *config.Config
	logger *logrus.Logger
	db     *gorm.DB

	reconciler *reconcile.Reconciler
	linker     *linker.Linker
	loader     *bulkload.Loader
	classifier *enzyme.Classifier
	aligner    *msa.Aligner
	reporter   *report.Reporter

	notifier *notify.Notifier
}

func newApp(c *config.Config) (*app, error) {
	logging.SetDefaultConfig(&c.Logging)
	logger := logging.NewLogger()

	database, err := biodb.Open(databaseConf(c))
	if err != nil {
		return nil, utils.WrapError(err, "open database fail")
	}
	getDatabase := biodb.DatabaseRaw
	p := parser.New(logger)

	a := &app{config: c, logger: logger, db: database}

	a.reconciler = reconcile.New(&reconcile.Setting{
		GetDatabase:    getDatabase,
		Logger:         logger,
		Parser:         p,
		ParseSize:      c.Batch.ParseSize,
		TaxonBatchSize: c.Batch.InsertSize,
	})
	a.linker = linker.New(&linker.Setting{
		GetDatabase:    getDatabase,
		Logger:         logger,
		Parser:         p,
		FlushSize:      c.Batch.LinkFlushSize,
		MaxRemoteFetch: c.Batch.MaxRemoteFetch,
		Fetcher:        remote.NewUniProtClient(remoteConf(c)),
		Reconciler:     a.reconciler,
	})
	a.loader = bulkload.New(&bulkload.Setting{GetDatabase: getDatabase, Logger: logger})
	a.classifier = enzyme.New(&enzyme.Setting{GetDatabase: getDatabase, Logger: logger, Chunk: c.Batch.LookupChunkSize})
	a.aligner = msa.New(&msa.Setting{
		GetDatabase: getDatabase,
		Logger:      logger,
		Parser:      p,
		Mafft:       c.Aligner.Mafft,
		Trimal:      c.Aligner.Trimal,
		FastTree:    c.Aligner.FastTree,
		Workers:     c.Aligner.Workers,
	})
	a.reporter = report.New(&report.Setting{GetDatabase: getDatabase, Logger: logger})

	notifySetting := &notify.Setting{MQ: mqConf(c), Recipient: c.Notify.Recipient, Logger: logger}
	if smtp := smtpConf(c); smtp.Enabled() {
		notifySetting.Email = email.NewSender(smtp)
	}
	notifier, err := notify.New(notifySetting)
	if err != nil {
		if sqlDB, dbErr := database.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, utils.WrapError(err, "create notifier fail")
	}
	a.notifier = notifier

	return a, nil
}

func (a *app) getDatabase() *gorm.DB {
	return a.db
}

func (a *app) catalog(fullReload bool) *pipeline.Catalog {
	return &pipeline.Catalog{
		Paths:      a.config.Paths,
		Reconciler: a.reconciler,
		Linker:     a.linker,
		Loader:     a.loader,
		FullReload: fullReload,
	}
}

func (a *app) pipeline() *pipeline.Pipeline {
	return pipeline.New(&pipeline.Setting{
		GetDatabase: a.getDatabase,
		Logger:      a.logger,
		Notifier:    a.notifier,
	})
}

// graphExporter 未配置 Neo4j 时只能写 CSV
func (a *app) graphExporter(push bool) (*graph.Exporter, func(), error) {
	setting := &graph.Setting{GetDatabase: a.getDatabase, Logger: a.logger}
	closer := func() {}
	if push {
		client, err := neograph.New(neographConf(a.config))
		if err != nil {
			return nil, nil, utils.WrapError(err, "connect neo4j fail")
		}
		setting.Runner = client
		closer = func() {
			if err := client.Close(); err != nil {
				a.logger.WithError(err).Warn("close neo4j driver fail")
			}
		}
	}
	return graph.New(setting), closer, nil
}

func (a *app) Close() {
	if err := a.notifier.Close(); err != nil {
		a.logger.WithError(err).Warn("close notifier fail")
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
