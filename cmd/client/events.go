package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lumen/pkg/events"
)

var (
	natsURL string
	topics  []string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print world events published to NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sub, err := events.NewNATSSubscriber(natsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		merged := make(chan events.Message)
		for _, topic := range topics {
			ch, cancel, err := sub.Subscribe(topic)
			if err != nil {
				return err
			}
			defer cancel()
			go func() {
				for msg := range ch {
					select {
					case merged <- msg:
					case <-ctx.Done():
						return
					}
				}
			}()
			logger.Debug("subscribed", "topic", topic)
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case msg := <-merged:
				fmt.Fprintf(os.Stdout, "%s %s\n", msg.Topic, msg.Data)
			}
		}
	},
}

func init() {
	eventsCmd.Flags().StringVar(&natsURL, "nats", "nats://127.0.0.1:4222", "NATS server URL")
	eventsCmd.Flags().StringSliceVar(&topics, "topic", []string{
		events.TopicPropertiesChanged,
		events.TopicEntityEntered,
		events.TopicEntityLeft,
		events.TopicCharacterSaved,
	}, "topics to subscribe to")
}
