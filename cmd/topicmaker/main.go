package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/niksmo/kiksniks/config"
	"github.com/niksmo/kiksniks/internal/adapter"
	"github.com/niksmo/kiksniks/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	partitions        = 3
	replicationFactor = 3
	deletePolicy      = "delete"
	retention         = 7 * 24 * time.Hour
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	if !cfg.BrokerEnabled() {
		fmt.Println("broker.seed_brokers is empty, nothing to do")
		return
	}

	cl := createClient(cfg)
	defer cl.Close()

	topic := cfg.Broker.Topics.StorefrontEvents
	printStart(topic)
	defer printComplete(time.Now())

	if err := makeTopics(sigCtx, cl, deletePolicy, topic); err != nil {
		printFail(err)
		return
	}
}

func createClient(cfg config.Config) *kadm.Client {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Broker.SeedBrokers...)}
	t := cfg.Broker.TLS
	if files := (adapter.TLSFiles{CA: t.CA, Cert: t.Cert, Key: t.Key}); files.Enabled() {
		tlsConfig, err := adapter.ClientTLSConfig(files)
		if err != nil {
			panic(err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}
	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func topicConfig(cleanupPolicy string) map[string]*string {
	var (
		minISR      = "1"
		retentionMS = strconv.FormatInt(retention.Milliseconds(), 10)
	)
	return map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
		"retention.ms":        &retentionMS,
	}
}

func makeTopics(
	ctx context.Context, cl *kadm.Client, cleanupPolicy string, topics ...string,
) error {
	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		topicConfig(cleanupPolicy),
		topics...,
	)
	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(topics ...string) {
	fmt.Println("initializing topics...")
	for _, t := range topics {
		fmt.Printf("\t- %q\n", t)
	}
	fmt.Println()
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}
