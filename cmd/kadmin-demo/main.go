// Command kadmin-demo exercises the admin engine against a real broker:
// load config, connect, submit a CreateTopics request, print the result.
// Grounded on cmd/thane's flag-parse / load-config / slog-setup /
// signal.NotifyContext shape.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/nugget/kadmin/internal/adminengine"
	"github.com/nugget/kadmin/internal/adminengine/adapters"
	"github.com/nugget/kadmin/internal/config"
	"github.com/nugget/kadmin/internal/kafkaconn"
)

func main() {
	configPath := flag.String("config", "", "path to kadmin.yaml")
	topic := flag.String("topic", "kadmin-demo-topic", "topic name to create")
	partitions := flag.Int("partitions", 1, "partition count for -topic")
	replication := flag.Int("replication", 1, "replication factor for -topic")
	flag.Parse()

	cfgPath, err := config.FindConfig(*configPath)
	var cfg *config.Config
	if err != nil {
		cfg = config.Default()
	} else {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *topic, int32(*partitions), int16(*replication)); err != nil {
		logger.Error("kadmin-demo failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, topic string, partitions int32, replication int16) error {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Version = sarama.V2_8_0_0

	if cfg.TLS.Enabled {
		tlsCfg := &tls.Config{InsecureSkipVerify: cfg.TLS.InsecureSkipVerify}
		if cfg.TLS.CAFile != "" {
			pool := x509.NewCertPool()
			pem, err := os.ReadFile(cfg.TLS.CAFile)
			if err != nil {
				return fmt.Errorf("reading tls.ca_file: %w", err)
			}
			pool.AppendCertsFromPEM(pem)
			tlsCfg.RootCAs = pool
		}
		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			if err != nil {
				return fmt.Errorf("loading tls client cert: %w", err)
			}
			tlsCfg.Certificates = []tls.Certificate{cert}
		}
		sc.Net.TLS.Enable = true
		sc.Net.TLS.Config = tlsCfg
	}

	if cfg.Kerberos.Configured() {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.Mechanism = sarama.SASLTypeGSSAPI
		sc.Net.SASL.GSSAPI.ServiceName = cfg.Kerberos.ServiceName
		sc.Net.SASL.GSSAPI.Realm = cfg.Kerberos.Realm
		sc.Net.SASL.GSSAPI.Username = cfg.Kerberos.Username
		sc.Net.SASL.GSSAPI.KeyTabPath = cfg.Kerberos.KeyTabPath
		sc.Net.SASL.GSSAPI.KerberosConfigPath = cfg.Kerberos.KrbConfigPath
		sc.Net.SASL.GSSAPI.DisablePAFXFAST = cfg.Kerberos.DisablePAFXFAST
		if cfg.Kerberos.KeyTabPath != "" {
			sc.Net.SASL.GSSAPI.AuthType = sarama.KRB5_KEYTAB_AUTH
		} else {
			sc.Net.SASL.GSSAPI.AuthType = sarama.KRB5_USER_AUTH
		}
	}

	client, err := sarama.NewClient(cfg.Brokers, sc)
	if err != nil {
		return fmt.Errorf("connecting to cluster: %w", err)
	}
	defer client.Close()

	pool := kafkaconn.New(client, logger, kafkaconn.DefaultBackoff())
	defer pool.Close()

	engine := adminengine.New(pool, adapters.All(), logger, cfg.Defaults.WorkQueueSize)

	runCtx, cancelRun := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.Run(runCtx)
	}()
	defer func() {
		cancelRun()
		<-done
	}()

	reply := adminengine.NewReplyQueue(4, logger)
	opts := adminengine.DefaultOptions(cfg.Defaults.RequestTimeout())
	opts.Opaque = topic

	err = engine.NewCreateTopics([]adminengine.TopicSpec{
		{
			Name:              topic,
			NumPartitions:     partitions,
			ReplicationFactor: replication,
		},
	}, opts, reply)
	if err != nil {
		return fmt.Errorf("submitting CreateTopics: %w", err)
	}

	select {
	case res := <-reply.Results():
		return report(logger, res)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(opts.RequestTimeout + 5*time.Second):
		return fmt.Errorf("timed out waiting for a result event")
	}
}

func report(logger *slog.Logger, res adminengine.Result) error {
	if res.Err != nil {
		return fmt.Errorf("%s failed: %w", res.Kind, res.Err)
	}
	for _, t := range res.Topics {
		if t.ErrCode != 0 {
			logger.Error("topic result", "topic", t.Topic, "err_code", t.ErrCode, "err_msg", t.ErrMsg)
			continue
		}
		logger.Info("topic result", "topic", t.Topic, "ok", true)
	}
	return nil
}
