package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// TicketWatcher pushes the full ticket list every time the collection changes.
// Watch blocks until ctx is done or the subscription fails.
type TicketWatcher interface {
	Watch(ctx context.Context, order TicketOrder, fn func([]domain.Ticket)) error
}

// ChangeNotifier announces that the ticket collection changed.
type ChangeNotifier interface {
	NotifyChanged(ctx context.Context, ticketID string) error
}

// RedisChangeFeed turns a Redis pub/sub channel into a TicketWatcher for stores
// without native change subscriptions. Every message triggers a full re-read.
type RedisChangeFeed struct {
	client  *redis.Client
	tickets TicketRepository
	channel string
}

// NewRedisChangeFeed wires the feed to the repository it re-reads.
func NewRedisChangeFeed(client *redis.Client, tickets TicketRepository, channel string) *RedisChangeFeed {
	return &RedisChangeFeed{client: client, tickets: tickets, channel: channel}
}

// NotifyChanged publishes the changed ticket ID on the channel.
func (f *RedisChangeFeed) NotifyChanged(ctx context.Context, ticketID string) error {
	if err := f.client.Publish(ctx, f.channel, ticketID).Err(); err != nil {
		return fmt.Errorf("publish ticket change: %w", err)
	}
	return nil
}

func (f *RedisChangeFeed) Watch(ctx context.Context, order TicketOrder, fn func([]domain.Ticket)) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	// Subscribe before the first read so no change between the two is lost.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	emit := func() error {
		tickets, err := f.tickets.List(ctx, order)
		if err != nil {
			return fmt.Errorf("reload tickets: %w", err)
		}
		fn(tickets)
		return nil
	}
	if err := emit(); err != nil {
		return err
	}

	// Subscription confirmations are delivered too: after the first, each one means
	// the client reconnected and may have missed changes while it was away.
	messages := sub.ChannelWithSubscriptions()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("ticket change channel closed")
			}
			if s, isSub := msg.(*redis.Subscription); isSub && s.Kind != "subscribe" {
				continue
			}
			// Coalesce bursts: one re-read covers every pending message.
			drain(messages)
			if err := emit(); err != nil {
				return err
			}
		}
	}
}

func drain(messages <-chan interface{}) {
	for {
		select {
		case _, ok := <-messages:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
