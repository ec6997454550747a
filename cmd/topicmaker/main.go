package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/catalog-cache/config"
	"github.com/niksmo/catalog-cache/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	partitions        = 3
	replicationFactor = 3
)

// Provisions the change-feed topic before the first service start.
func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	if !cfg.FeedEnabled() {
		fmt.Println("no seed brokers configured, nothing to do")
		return
	}

	cl := createClient(cfg.Broker.SeedBrokers)
	defer cl.Close()

	printStart(cfg)
	defer printComplete(time.Now())

	err := makeTopics(sigCtx, cl, cfg.Broker.Topics.ProductEvents)
	if err != nil {
		printFail(err)
	}
}

func createClient(seedBrokers []string) *kadm.Client {
	cl, err := kadm.NewOptClient(
		kgo.SeedBrokers(seedBrokers...),
	)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopics(
	ctx context.Context, cl *kadm.Client, topics ...string,
) error {
	var (
		cleanupPolicy = "delete"
		minISR        = "1"
	)

	config := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		config,
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

func printStart(cfg config.Config) {
	fmt.Printf("initializing topics...\n\t- %q\n\n",
		cfg.Broker.Topics.ProductEvents)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}
